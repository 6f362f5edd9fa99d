package pricing

import "github.com/shopspring/decimal"

// DefaultTable returns a table preloaded with the built-in price sheet.
// Prices reflect public per-1K-token list prices and can be overridden
// through configuration or Register at any time.
func DefaultTable() *Table {
	t := NewTable()
	for _, p := range defaultEntries() {
		// Entries below are statically well-formed.
		_ = t.Register(p)
	}
	return t
}

func defaultEntries() []ModelPricing {
	d := decimal.RequireFromString
	return []ModelPricing{
		// OpenAI
		{Model: "gpt-4", InputPer1K: d("0.03"), OutputPer1K: d("0.06"), MaxTokens: 8192},
		{Model: "gpt-4-32k", InputPer1K: d("0.06"), OutputPer1K: d("0.12"), MaxTokens: 32768},
		{Model: "gpt-4-turbo", InputPer1K: d("0.01"), OutputPer1K: d("0.03"), MaxTokens: 128000},
		{Model: "gpt-4o", InputPer1K: d("0.005"), OutputPer1K: d("0.015"), MaxTokens: 128000},
		{Model: "gpt-4o-mini", InputPer1K: d("0.00015"), OutputPer1K: d("0.0006"), MaxTokens: 128000},
		{Model: "gpt-3.5-turbo", InputPer1K: d("0.0015"), OutputPer1K: d("0.002"), MaxTokens: 16385},
		{Model: "gpt-3.5-turbo-16k", InputPer1K: d("0.003"), OutputPer1K: d("0.004"), MaxTokens: 16385},

		// Qwen (Alibaba Cloud)
		{Model: "qwen-turbo", InputPer1K: d("0.002"), OutputPer1K: d("0.006"), MaxTokens: 8192},
		{Model: "qwen-plus", InputPer1K: d("0.004"), OutputPer1K: d("0.012"), MaxTokens: 32768},
		{Model: "qwen-max", InputPer1K: d("0.02"), OutputPer1K: d("0.06"), MaxTokens: 8192},
		{Model: "qwen-max-longcontext", InputPer1K: d("0.02"), OutputPer1K: d("0.06"), MaxTokens: 30000},

		// Anthropic
		{Model: "claude-3-opus", InputPer1K: d("0.015"), OutputPer1K: d("0.075"), MaxTokens: 200000},
		{Model: "claude-3-sonnet", InputPer1K: d("0.003"), OutputPer1K: d("0.015"), MaxTokens: 200000},
		{Model: "claude-3-haiku", InputPer1K: d("0.00025"), OutputPer1K: d("0.00125"), MaxTokens: 200000},

		// Google
		{Model: "gemini-pro", InputPer1K: d("0.0005"), OutputPer1K: d("0.0015"), MaxTokens: 32768},
		{Model: "gemini-pro-vision", InputPer1K: d("0.0005"), OutputPer1K: d("0.0015"), MaxTokens: 16384},

		// DeepSeek
		{Model: "deepseek-chat", InputPer1K: d("0.00014"), OutputPer1K: d("0.00028"), MaxTokens: 32768},
		{Model: "deepseek-coder", InputPer1K: d("0.00014"), OutputPer1K: d("0.00028"), MaxTokens: 16384},

		// Moonshot
		{Model: "moonshot-v1-8k", InputPer1K: d("0.001"), OutputPer1K: d("0.001"), MaxTokens: 8192},
		{Model: "moonshot-v1-32k", InputPer1K: d("0.002"), OutputPer1K: d("0.002"), MaxTokens: 32768},
		{Model: "moonshot-v1-128k", InputPer1K: d("0.008"), OutputPer1K: d("0.008"), MaxTokens: 131072},

		// Baichuan
		{Model: "baichuan2-turbo", InputPer1K: d("0.008"), OutputPer1K: d("0.008"), MaxTokens: 32768},
		{Model: "baichuan2-turbo-192k", InputPer1K: d("0.016"), OutputPer1K: d("0.016"), MaxTokens: 196608},
	}
}
