package stages

import "github.com/google/generative-ai-go/genai"

func nullableString() *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Nullable: true}
}

func nullableNumber(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeNumber, Nullable: true, Description: desc}
}

func stringArray(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: desc}
}

// extractFactsSchema constrains the fact extraction response.
var extractFactsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"candidateName":   nullableString(),
		"headline":        nullableString(),
		"yearsExperience": nullableNumber("total years of professional experience stated in the documents"),
		"skills":          stringArray("skills the candidate states"),
		"tools":           stringArray("tools and technologies the candidate states"),
		"certifications":  stringArray(""),
		"education":       stringArray(""),
		"achievements":    stringArray("achievements copied or condensed from the résumé"),
		"experience": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"employer":     nullableString(),
					"role":         nullableString(),
					"startDate":    nullableString(),
					"endDate":      nullableString(),
					"achievements": stringArray(""),
				},
				Required: []string{"employer", "role", "achievements"},
			},
		},
		"language":    {Type: genai.TypeString, Description: "ISO 639-1 code of the résumé language"},
		"jobTitle":    nullableString(),
		"companyName": nullableString(),
	},
	Required: []string{"skills", "achievements", "experience", "language"},
}

var evidenceSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"resumeQuote":     nullableString(),
		"jdQuote":         nullableString(),
		"missingKeywords": stringArray("keywords from the job description the résumé lacks"),
	},
	Required: []string{"resumeQuote", "jdQuote", "missingKeywords"},
}

var keywordCoverageSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"matched": stringArray(""),
		"missing": stringArray(""),
		"partial": stringArray(""),
	},
}

// scoreMatchSchema constrains the match scoring response.
var scoreMatchSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"scoreBreakdown": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"overall":    nullableNumber("0-100"),
				"skills":     nullableNumber("0-100"),
				"experience": nullableNumber("0-100"),
				"keywords":   nullableNumber("0-100"),
				"formatting": nullableNumber("0-100"),
			},
			Required: []string{"overall", "skills", "experience", "keywords", "formatting"},
		},
		"improvements": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"point":    {Type: genai.TypeString},
					"category": {Type: genai.TypeString, Enum: []string{"skills", "experience", "keywords", "formatting", "impact"}},
					"impact":   {Type: genai.TypeString, Enum: []string{"high", "medium", "low"}},
					"evidence": evidenceSchema,
				},
				Required: []string{"point", "category", "impact", "evidence"},
			},
		},
		"keywordCoverage":         keywordCoverageSchema,
		"hardRequirementsMissing": stringArray(""),
	},
	Required: []string{"scoreBreakdown", "improvements"},
}

// rewriteDocsSchema constrains the document rewrite response.
var rewriteDocsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"optimizedResume":      {Type: genai.TypeString},
		"optimizedCoverLetter": {Type: genai.TypeString},
		"changeSummary":        stringArray("short list of what changed"),
	},
	Required: []string{"optimizedResume", "optimizedCoverLetter", "changeSummary"},
}
