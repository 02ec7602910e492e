package voice

import (
	"sort"
	"strings"
)

// Command tags emitted by the classifier and understood by the brew tracker.
const (
	CommandStartBatch    = "start_batch"
	CommandAddIngredient = "add_ingredient"
	CommandCompleteBatch = "complete_batch"
)

// commandOrder fixes the tag order in classification results so dispatch is
// deterministic.
var commandOrder = []string{CommandStartBatch, CommandAddIngredient, CommandCompleteBatch}

// defaultCommands maps each command tag to the spoken phrases that trigger it.
var defaultCommands = map[string][]string{
	CommandStartBatch:    {"begin potion", "start potion", "create potion"},
	CommandAddIngredient: {"added", "inserted", "mixed in"},
	CommandCompleteBatch: {"complete elixir", "finish potion", "finalize mixture"},
}

// defaultIngredients maps ingredient types to their spoken names.
var defaultIngredients = map[string][]string{
	"dragon_blood":  {"dragon blood", "blood of dragon"},
	"phoenix_tears": {"phoenix tears", "tears of phoenix"},
	"unicorn_hair":  {"unicorn hair", "hair of unicorn"},
	"mandrake_root": {"mandrake root", "root of mandrake"},
}

// Classifier matches transcripts against keyword tables. Matching is
// case-insensitive substring search, so a transcript can carry several tags
// at once.
type Classifier struct {
	commands    map[string][]string
	ingredients map[string][]string
}

// NewClassifier builds a classifier from the default tables with the given
// overrides merged in. Nil maps keep the defaults.
func NewClassifier(commands, ingredients map[string][]string) *Classifier {
	c := &Classifier{
		commands:    make(map[string][]string, len(defaultCommands)),
		ingredients: make(map[string][]string, len(defaultIngredients)),
	}
	for tag, phrases := range defaultCommands {
		c.commands[tag] = phrases
	}
	for tag, phrases := range commands {
		c.commands[tag] = phrases
	}
	for kind, phrases := range defaultIngredients {
		c.ingredients[kind] = phrases
	}
	for kind, phrases := range ingredients {
		c.ingredients[kind] = phrases
	}
	return c
}

// Classify returns the command tags whose phrases appear in the transcript,
// in a fixed order. An unrecognized transcript yields nil.
func (c *Classifier) Classify(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ToLower(text)
	var tags []string
	for _, tag := range c.tagOrder() {
		for _, phrase := range c.commands[tag] {
			if strings.Contains(text, phrase) {
				tags = append(tags, tag)
				break
			}
		}
	}
	return tags
}

// tagOrder lists the known tags first, then any custom tags sorted by name.
func (c *Classifier) tagOrder() []string {
	order := make([]string, 0, len(c.commands))
	seen := make(map[string]bool, len(c.commands))
	for _, tag := range commandOrder {
		if _, ok := c.commands[tag]; ok {
			order = append(order, tag)
			seen[tag] = true
		}
	}
	var extra []string
	for tag := range c.commands {
		if !seen[tag] {
			extra = append(extra, tag)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}

// IngredientType identifies the ingredient named in the transcript. Kinds
// are checked in name order so a transcript naming several resolves the
// same way every time. The second return is false when no ingredient
// vocabulary matches.
func (c *Classifier) IngredientType(text string) (string, bool) {
	text = strings.ToLower(text)
	kinds := make([]string, 0, len(c.ingredients))
	for kind := range c.ingredients {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		for _, phrase := range c.ingredients[kind] {
			if strings.Contains(text, phrase) {
				return kind, true
			}
		}
	}
	return "", false
}
