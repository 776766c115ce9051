// Package template reads and writes the YAML form of a user's weekly plan and
// its objective catalog.
package template

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/studyloop/internal/models"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://studyloop.local/template.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// Document is the on-disk template file.
type Document struct {
	Timezone   string         `yaml:"timezone,omitempty"`
	Objectives []ObjectiveDoc `yaml:"objectives,omitempty"`
	Template   TemplateDoc    `yaml:"template"`
}

type ObjectiveDoc struct {
	ID               string `yaml:"id,omitempty"`
	Title            string `yaml:"title"`
	Category         string `yaml:"category,omitempty"`
	EstimatedMinutes int    `yaml:"estimated_minutes,omitempty"`
	Active           *bool  `yaml:"active,omitempty"`
}

type TemplateDoc struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Days        map[string]DayDoc `yaml:"days"`
}

type DayDoc struct {
	// Active defaults to true when the day lists items.
	Active *bool     `yaml:"active,omitempty"`
	Items  []ItemDoc `yaml:"items,omitempty"`
}

// ItemDoc references an objective by title or id.
type ItemDoc struct {
	Objective string `yaml:"objective"`
	Duration  int    `yaml:"duration,omitempty"`
}

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("failed to parse template schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("failed to load template schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// Validate checks raw YAML against the template schema.
func Validate(data []byte) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("template document is empty")
	}

	// Round trip through JSON so the validator sees JSON-native types.
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("template document is not JSON compatible: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return err
	}

	sch, err := schema()
	if err != nil {
		return err
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("template does not match schema: %w", err)
	}
	return nil
}

// Parse validates and decodes a template document.
func Parse(data []byte) (Document, error) {
	if err := Validate(data); err != nil {
		return Document{}, err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to decode template: %w", err)
	}
	for key := range doc.Template.Days {
		if _, err := models.ParseWeekday(key); err != nil {
			return Document{}, err
		}
	}
	return doc, nil
}

// Marshal renders the document as YAML.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FromModels builds a document from stored state. Items refer to objectives
// by title.
func FromModels(user models.User, objectives []models.Objective, tpl models.WeeklyTemplate) Document {
	doc := Document{Timezone: user.Timezone}
	titles := map[string]string{}
	for _, o := range objectives {
		titles[o.ID] = o.Title
		active := o.Active
		doc.Objectives = append(doc.Objectives, ObjectiveDoc{
			ID:               o.ID,
			Title:            o.Title,
			Category:         o.Category,
			EstimatedMinutes: o.EstimatedMinutes,
			Active:           &active,
		})
	}

	doc.Template = TemplateDoc{Name: tpl.Name, Description: tpl.Description, Days: map[string]DayDoc{}}
	weekdays := make([]time.Weekday, 0, len(tpl.Days))
	for wd := range tpl.Days {
		weekdays = append(weekdays, wd)
	}
	sort.Slice(weekdays, func(i, j int) bool { return weekdays[i] < weekdays[j] })
	for _, wd := range weekdays {
		ds := tpl.Days[wd]
		active := ds.Active
		day := DayDoc{Active: &active}
		for _, item := range ds.Items {
			ref := titles[item.ObjectiveID]
			if ref == "" {
				ref = item.ObjectiveID
			}
			day.Items = append(day.Items, ItemDoc{Objective: ref, Duration: item.DurationMin})
		}
		doc.Template.Days[models.WeekdayKey(wd)] = day
	}
	return doc
}
