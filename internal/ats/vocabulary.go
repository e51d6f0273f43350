package ats

import (
	"regexp"
	"sort"
)

// vocabTerm is a known tool or technology. Terms that double as ordinary English words
// ("Go", "Swift", "Excel") are matched case-sensitively.
type vocabTerm struct {
	name          string
	caseSensitive bool
}

var toolVocabulary = []vocabTerm{
	{name: "Go", caseSensitive: true}, {name: "Golang"}, {name: "Python"}, {name: "Java"},
	{name: "JavaScript"}, {name: "TypeScript"}, {name: "Ruby"}, {name: "Rust", caseSensitive: true},
	{name: "C++"}, {name: "C#"}, {name: "Scala"}, {name: "Kotlin"}, {name: "Swift", caseSensitive: true},
	{name: "PHP"}, {name: "SQL"}, {name: "NoSQL"}, {name: "PostgreSQL"}, {name: "Postgres"}, {name: "MySQL"},
	{name: "MongoDB"}, {name: "Redis"}, {name: "Kafka"}, {name: "RabbitMQ"}, {name: "Elasticsearch"},
	{name: "Spark", caseSensitive: true}, {name: "Hadoop"}, {name: "Airflow"}, {name: "dbt"},
	{name: "Snowflake", caseSensitive: true}, {name: "BigQuery"}, {name: "AWS"}, {name: "GCP"},
	{name: "Azure"}, {name: "Docker"}, {name: "Kubernetes"}, {name: "Terraform"}, {name: "Ansible"},
	{name: "Jenkins"}, {name: "GitHub Actions"}, {name: "CI/CD"}, {name: "Git"}, {name: "Linux"},
	{name: "React", caseSensitive: true}, {name: "Angular"}, {name: "Vue"}, {name: "Node.js"}, {name: "Django"},
	{name: "Flask"}, {name: "FastAPI"}, {name: "Spring", caseSensitive: true}, {name: "Rails", caseSensitive: true},
	{name: ".NET"}, {name: "GraphQL"}, {name: "REST", caseSensitive: true}, {name: "gRPC"}, {name: "Microservices"},
	{name: "TensorFlow"}, {name: "PyTorch"}, {name: "scikit-learn"}, {name: "Pandas"}, {name: "NumPy"},
	{name: "Tableau"}, {name: "Power BI"}, {name: "Excel", caseSensitive: true}, {name: "Figma"},
	{name: "Jira"}, {name: "Agile"}, {name: "Scrum"}, {name: "Machine Learning"}, {name: "Prometheus"},
	{name: "Grafana"}, {name: "Datadog"}, {name: "Salesforce"}, {name: "HTML"}, {name: "CSS"},
}

// vocabPatterns are compiled once; boundaries treat + and # as word characters so "C" never matches inside "C++".
var vocabPatterns = compileVocabulary(toolVocabulary)

type vocabPattern struct {
	name string
	re   *regexp.Regexp
}

func compileVocabulary(terms []vocabTerm) []vocabPattern {
	patterns := make([]vocabPattern, 0, len(terms))
	for _, term := range terms {
		flags := "(?i)"
		if term.caseSensitive {
			flags = ""
		}
		expr := flags + `(?:^|[^A-Za-z0-9+#])(` + regexp.QuoteMeta(term.name) + `)(?:$|[^A-Za-z0-9+#])`
		patterns = append(patterns, vocabPattern{name: term.name, re: regexp.MustCompile(expr)})
	}
	return patterns
}

var acronymRegex = regexp.MustCompile(`\b[A-Z][A-Z0-9]{1,5}\b`)

// acronymStopList holds all-caps tokens that are not technologies.
var acronymStopList = map[string]bool{
	"OR": true, "AND": true, "US": true, "USA": true, "UK": true, "EU": true, "EEO": true,
	"THE": true, "TO": true, "IN": true, "OF": true, "FOR": true, "WE": true, "YOU": true,
	"OUR": true, "ALL": true, "NEW": true, "ON": true, "AT": true, "IS": true, "IT": true,
	"BE": true, "AS": true, "BY": true, "NOT": true, "HR": true, "FAQ": true, "ETC": true,
	"LLC": true, "INC": true, "II": true, "III": true, "IV": true, "OK": true, "PTO": true,
	"EOE": true, "ADA": true, "AM": true, "PM": true, "NOTE": true, "ABOUT": true, "WHAT": true,
}

type keywordHit struct {
	index int
	name  string
}

// ExtractToolKeywords returns vocabulary terms and all-caps acronyms found in text,
// in order of first appearance, deduplicated case-insensitively.
func ExtractToolKeywords(text string) []string {
	var hits []keywordHit
	var spans [][]int
	for _, p := range vocabPatterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			spans = append(spans, loc[2:4])
		}
		if loc := p.re.FindStringSubmatchIndex(text); loc != nil {
			hits = append(hits, keywordHit{index: loc[2], name: p.name})
		}
	}
	for _, loc := range acronymRegex.FindAllStringIndex(text, -1) {
		token := text[loc[0]:loc[1]]
		if acronymStopList[token] || countLetters(token) < 2 || insideSpan(loc, spans) {
			continue
		}
		hits = append(hits, keywordHit{index: loc[0], name: token})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].index < hits[j].index })
	names := make([]string, 0, len(hits))
	for _, h := range hits {
		names = append(names, h.name)
	}
	return dedupe(names)
}

// insideSpan reports whether loc lies within a longer vocabulary match, e.g. CI inside CI/CD.
func insideSpan(loc []int, spans [][]int) bool {
	for _, span := range spans {
		if loc[0] >= span[0] && loc[1] <= span[1] && (loc[1]-loc[0]) < (span[1]-span[0]) {
			return true
		}
	}
	return false
}

func countLetters(s string) int {
	n := 0
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			n++
		}
	}
	return n
}
