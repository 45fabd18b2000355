package analysis

import "strings"

// Prompt templates per analysis type. The request's analysis_type is an
// open-ended string; anything unrecognized gets the general template.
var promptTemplates = map[string]string{
	"general": `You are a comprehensive financial advisor. Analyze this financial question: %s

Provide thorough analysis including:
1. Context and Background (what's driving this question)
2. Key Financial Considerations (3-5 important factors)
3. Quantitative Analysis (numbers, ratios, metrics where relevant)
4. Qualitative Factors (market conditions, sentiment, trends)
5. Actionable Recommendations (specific next steps)

Make your response practical and actionable.`,

	"risk": `You are a risk management expert. Assess the financial risks in: %s

Provide detailed analysis covering:
1. Primary Risk Factors (identify 3-5 key risks)
2. Risk Severity (High/Medium/Low for each factor)
3. Probability Assessment (likely outcomes)
4. Risk Mitigation Strategies (actionable recommendations)
5. Portfolio Impact (how this affects overall risk profile)

Focus on quantifiable risks and practical mitigation strategies.`,

	"recommendation": `You are a senior investment analyst with 15 years of experience. Analyze this investment question: %s

Please provide:
1. Executive Summary (2-3 sentences)
2. Key Investment Factors (3-4 bullet points)
3. Risk Assessment (High/Medium/Low with reasons)
4. Recommendation (Buy/Hold/Sell with price target if applicable)
5. Time Horizon (Short/Medium/Long term outlook)

Base your analysis on fundamental factors, market conditions, and risk-reward ratios.`,

	"investment": `You are a senior investment analyst with 15 years of experience. Analyze this investment question: %s

Please provide:
1. Executive Summary (2-3 sentences)
2. Key Investment Factors (3-4 bullet points)
3. Risk Assessment (High/Medium/Low with reasons)
4. Recommendation (Buy/Hold/Sell with price target if applicable)
5. Time Horizon (Short/Medium/Long term outlook)

Base your analysis on fundamental factors, market conditions, and risk-reward ratios.`,

	"market": `You are a market analyst with expertise in technical and fundamental analysis. Analyze: %s

Include comprehensive coverage of:
1. Current Market Position (trend analysis)
2. Technical Indicators (support/resistance, momentum)
3. Fundamental Drivers (earnings, economic factors)
4. Market Sentiment (institutional vs retail positioning)
5. Short-term vs Long-term Outlook (3-month and 12-month views)

Provide specific price levels and catalyst events.`,
}

// buildPrompt wraps the user prompt in the template for the requested
// analysis type.
func buildPrompt(prompt, analysisType string) string {
	tmpl, ok := promptTemplates[strings.ToLower(strings.TrimSpace(analysisType))]
	if !ok {
		tmpl = promptTemplates["general"]
	}
	return strings.Replace(tmpl, "%s", prompt, 1)
}

// AnalysisTypes lists the recognized analysis types, for the status endpoint.
func AnalysisTypes() []string {
	return []string{"general", "risk", "recommendation", "investment", "market"}
}
