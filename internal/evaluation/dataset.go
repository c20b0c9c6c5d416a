package evaluation

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sample is one multiple-choice question. Answer is the index of the
// correct choice.
type Sample struct {
	Question string   `yaml:"question" json:"question"`
	Choices  []string `yaml:"choices" json:"choices"`
	Answer   int      `yaml:"answer" json:"answer"`
	Subject  string   `yaml:"subject,omitempty" json:"subject,omitempty"`
}

// Prompt renders the sample as a task for a pattern.
func (s Sample) Prompt() string {
	var b strings.Builder
	b.WriteString("Answer the following multiple choice question.\n\n")
	b.WriteString(strings.TrimSpace(s.Question))
	b.WriteString("\n")
	for i, c := range s.Choices {
		fmt.Fprintf(&b, "(%c) %s\n", letter(i), c)
	}
	fmt.Fprintf(&b, "\nProvide your answer as a single letter in the range A-%c.", letter(len(s.Choices)-1))
	return b.String()
}

// Target returns the letter of the correct choice.
func (s Sample) Target() string {
	return string(letter(s.Answer))
}

func letter(i int) rune {
	return rune('A' + i)
}

func (s Sample) validate() error {
	if strings.TrimSpace(s.Question) == "" {
		return fmt.Errorf("question is required")
	}
	if len(s.Choices) < 2 || len(s.Choices) > 26 {
		return fmt.Errorf("need 2 to 26 choices, got %d", len(s.Choices))
	}
	if s.Answer < 0 || s.Answer >= len(s.Choices) {
		return fmt.Errorf("answer %d out of range for %d choices", s.Answer, len(s.Choices))
	}
	return nil
}

// Filter selects samples from a dataset.
type Filter struct {
	// Subjects keeps only samples with one of these subjects. Empty keeps all.
	Subjects []string

	// Shuffle reorders samples with a PCG source seeded by Seed, before Limit
	// is applied.
	Shuffle bool
	Seed    uint64

	// Limit caps the number of samples. Zero means no cap.
	Limit int
}

// Apply returns the samples selected by f. The input is not modified.
func (f Filter) Apply(samples []Sample) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if len(f.Subjects) == 0 || slices.Contains(f.Subjects, s.Subject) {
			out = append(out, s)
		}
	}

	if f.Shuffle {
		r := rand.New(rand.NewPCG(f.Seed, f.Seed))
		r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// LoadDataset reads samples from a YAML list (.yaml, .yml) or JSON lines
// (.jsonl) file and applies f.
func LoadDataset(path string, f Filter) ([]Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var samples []Sample
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		samples, err = parseYAML(data)
	case ".jsonl":
		samples, err = parseJSONL(data)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q (want .yaml, .yml or .jsonl)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}

	for i, s := range samples {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("dataset %s: sample %d: %w", path, i, err)
		}
	}
	return f.Apply(samples), nil
}

func parseYAML(data []byte) ([]Sample, error) {
	var samples []Sample
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&samples); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return samples, nil
}

func parseJSONL(data []byte) ([]Sample, error) {
	var samples []Sample
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		var s Sample
		dec := json.NewDecoder(bytes.NewReader(text))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}
