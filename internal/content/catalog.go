// Package content holds the user facing texts of the service: badge display
// data, category colors, quotes, habit suggestions and message tables.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/stats"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	ErrMissingBadge    = errors.New("catalog is missing a badge definition")
	ErrMissingQuotes   = errors.New("catalog needs at least one quote")
	ErrMissingReminder = errors.New("catalog needs reminder title and body")
)

type BadgeInfo struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
}

type Category struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

type MessageText struct {
	When string `yaml:"when"`
	Text string `yaml:"text"`
}

type MessageSet struct {
	Fallback string        `yaml:"fallback"`
	Rules    []MessageText `yaml:"rules"`
}

type ReminderText struct {
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
}

type Catalog struct {
	Badges          map[string]BadgeInfo `yaml:"badges"`
	Categories      []Category           `yaml:"categories"`
	MotivationSet   MessageSet           `yaml:"motivation"`
	PersonalizedSet MessageSet           `yaml:"personalized"`
	Quotes          []string             `yaml:"quotes"`
	Suggestions     []string             `yaml:"suggestions"`
	Reminder        ReminderText         `yaml:"reminder"`

	motivation   stats.MessageTable
	personalized stats.MessageTable
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads the catalog at path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the catalog is complete and compiles its message tables.
func (c *Catalog) Validate() error {
	for _, k := range domain.AllBadgeKeys {
		info, ok := c.Badges[string(k)]
		if !ok || info.Name == "" {
			return fmt.Errorf("%w: %s", ErrMissingBadge, k)
		}
	}
	if len(c.Quotes) == 0 {
		return ErrMissingQuotes
	}
	if c.Reminder.Title == "" || c.Reminder.Body == "" {
		return ErrMissingReminder
	}

	var err error
	if c.motivation, err = buildTable(c.MotivationSet); err != nil {
		return fmt.Errorf("motivation: %w", err)
	}
	if c.personalized, err = buildTable(c.PersonalizedSet); err != nil {
		return fmt.Errorf("personalized: %w", err)
	}
	return nil
}

func buildTable(set MessageSet) (stats.MessageTable, error) {
	rules := make([]stats.MessageRule, 0, len(set.Rules))
	for _, r := range set.Rules {
		p, err := stats.LookupPredicate(r.When)
		if err != nil {
			return stats.MessageTable{}, fmt.Errorf("%w: %q", err, r.When)
		}
		rules = append(rules, stats.MessageRule{Name: r.When, When: p, Text: r.Text})
	}
	return stats.NewMessageTable(set.Fallback, rules...)
}

func (c *Catalog) Motivation(f stats.MessageFacts) string {
	return c.motivation.Pick(f)
}

func (c *Catalog) PersonalizedQuote(f stats.MessageFacts) string {
	return c.personalized.Pick(f)
}

// BadgeViews lists every known badge in display order with its unlock state.
func (c *Catalog) BadgeViews(unlocked domain.BadgeSet) []domain.BadgeView {
	views := make([]domain.BadgeView, 0, len(domain.AllBadgeKeys))
	for _, k := range domain.AllBadgeKeys {
		info := c.Badges[string(k)]
		views = append(views, domain.BadgeView{
			Key:         k,
			Name:        info.Name,
			Description: info.Description,
			Icon:        info.Icon,
			Unlocked:    unlocked.Has(k),
		})
	}
	return views
}

// CategoryColor returns the color configured for category, falling back to
// the color of Other. Matching ignores case.
func (c *Catalog) CategoryColor(category string) string {
	fallback := ""
	for _, cat := range c.Categories {
		if strings.EqualFold(cat.Name, category) {
			return cat.Color
		}
		if cat.Name == domain.CategoryOther {
			fallback = cat.Color
		}
	}
	return fallback
}

// ReminderNotification renders the reminder title and body for a habit.
func (c *Catalog) ReminderNotification(habitName string) (string, string) {
	r := strings.NewReplacer("{name}", habitName)
	return r.Replace(c.Reminder.Title), r.Replace(c.Reminder.Body)
}
