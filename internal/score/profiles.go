package score

import "time"

var organizations = Table{
	{"openai", 25}, {"anthropic", 25}, {"google deepmind", 25}, {"deepmind", 22},
	{"nvidia", 18}, {"microsoft", 15}, {"google", 15}, {"meta ai", 16}, {"meta", 12},
	{"hugging face", 15}, {"huggingface", 15}, {"mistral ai", 14}, {"mistral", 12},
	{"xai", 12}, {"apple", 12}, {"amazon", 12}, {"aws", 12}, {"perplexity", 10},
	{"stability ai", 10}, {"cohere", 10}, {"ibm", 8}, {"baidu", 8}, {"alibaba", 8},
	{"salesforce", 8},
}

var impactKeywords = Table{
	{"gpt-5", 25}, {"funding", 20}, {"acquisition", 20}, {"acquires", 20},
	{"raises", 18}, {"breakthrough", 18}, {"ipo", 18},
	{"launch", 15}, {"regulation", 15}, {"ai act", 15},
	{"release", 12}, {"lawsuit", 12}, {"partnership", 12}, {"open source", 12},
	{"open-source", 12}, {"state-of-the-art", 12}, {"billion", 12},
	{"agent", 10}, {"benchmark", 10},
	{"資金調達", 20}, {"買収", 20}, {"規制", 15}, {"発表", 12}, {"提携", 12}, {"公開", 10},
}

var credibleSources = Table{
	{"openai.com", 25}, {"anthropic.com", 25}, {"deepmind.google", 25},
	{"arxiv.org", 20}, {"huggingface.co", 20}, {"mit technology review", 18},
	{"blog.google", 18}, {"pytorch.org", 18}, {"aws.amazon.com", 15},
	{"techcrunch", 15}, {"github.com", 15}, {"the verge", 12}, {"venturebeat", 12},
	{"wired", 12}, {"reddit", 5},
}

var technicalTerms = Table{
	{"fine-tuning", 8}, {"fine tuning", 8}, {"rag", 8}, {"quantization", 8},
	{"api", 6}, {"sdk", 6}, {"github", 6}, {"llm", 6}, {"transformer", 6},
	{"inference", 6}, {"diffusion", 6}, {"multimodal", 6}, {"vector database", 6},
	{"pytorch", 6}, {"mlops", 6}, {"prompt engineering", 6}, {"automation", 6},
	{"copilot", 6}, {"embedding", 5}, {"cuda", 5}, {"gpu", 5}, {"workflow", 5},
	{"実装", 6}, {"推論", 6}, {"自動化", 6},
}

var notablePeople = Table{
	{"karpathy", 30}, {"sama", 30}, {"ylecun", 25}, {"demishassabis", 25},
	{"andrewyng", 25}, {"drjimfan", 20}, {"emollick", 18}, {"simonw", 18},
	{"hardmaru", 15}, {"goodside", 15}, {"swyx", 15},
}

var engagementTerms = Table{
	{"just released", 12}, {"breaking", 12}, {"must read", 10}, {"open-sourced", 10},
	{"thread", 8}, {"🧵", 8}, {"demo", 6},
	{"速報", 12}, {"解説", 8}, {"まとめ", 6},
}

// General scores feed articles.
func General() Profile {
	return Profile{
		Name:            "general",
		Orgs:            organizations,
		Keywords:        impactKeywords,
		Sources:         credibleSources,
		Technical:       technicalTerms,
		KeywordFactor:   0.6,
		SourceFactor:    0.4,
		TechnicalFactor: 0.5,
		Freshness: []FreshnessTier{
			{Within: 6 * time.Hour, Points: 15},
			{Within: 12 * time.Hour, Points: 10},
			{Within: 24 * time.Hour, Points: 5},
		},
		Length: []LengthTier{
			{MinWords: 14, Points: 6},
			{MinWords: 8, Points: 3},
		},
	}
}

// Social scores posts. Freshness is replaced by a calendar-day bonus around reference.
func Social(reference time.Time) Profile {
	return Profile{
		Name:             "social",
		Orgs:             organizations,
		Keywords:         impactKeywords,
		Technical:        technicalTerms,
		People:           notablePeople,
		Engagement:       engagementTerms,
		KeywordFactor:    0.6,
		TechnicalFactor:  0.5,
		PeopleFactor:     0.8,
		EngagementFactor: 0.5,
		Length: []LengthTier{
			{MinWords: 14, Points: 6},
			{MinWords: 8, Points: 3},
		},
		Days: &DayBonus{Reference: reference, PerDay: 3, Max: 10},
	}
}
