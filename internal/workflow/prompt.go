package workflow

import (
	"fmt"
	"strings"

	"github.com/your-org/icg/internal/models"
)

// PreviewStyles are the looks rendered for every new persona.
var PreviewStyles = []string{"professional headshot", "casual portrait", "full body shot"}

func stringSetting(settings map[string]any, key, fallback string) string {
	if v, ok := settings[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func intSetting(settings map[string]any, key string, fallback int) int {
	switch v := settings[key].(type) {
	case int:
		return v
	case float64:
		if v > 0 {
			return int(v)
		}
	}
	return fallback
}

func floatSetting(settings map[string]any, key string, fallback float64) float64 {
	switch v := settings[key].(type) {
	case float64:
		if v > 0 {
			return v
		}
	case int:
		if v > 0 {
			return float64(v)
		}
	}
	return fallback
}

func personaTraits(p *models.Persona) (ageRange, gender string) {
	ageRange = "25-35"
	gender = "person"
	if v, ok := p.Attributes["age_range"].(string); ok && v != "" {
		ageRange = v
	}
	if v, ok := p.Attributes["gender"].(string); ok && v != "" {
		gender = v
	}
	return ageRange, gender
}

// PreviewPrompt builds the prompt for one persona preview style.
func PreviewPrompt(style string, p *models.Persona) string {
	ageRange, gender := personaTraits(p)

	var b strings.Builder
	fmt.Fprintf(&b, "%s of a %s year old %s, ", style, ageRange, gender)
	if v, ok := p.Attributes["style"].(string); ok && v != "" {
		fmt.Fprintf(&b, "%s style, ", v)
	}
	if p.Description != "" {
		fmt.Fprintf(&b, "%s, ", p.Description)
	}
	b.WriteString("high quality, professional photography, studio lighting")
	return b.String()
}

var portraitStyles = map[string]string{
	"professional": "business attire, professional headshot, ",
	"casual":       "casual attire, relaxed pose, ",
	"artistic":     "artistic portrait, creative lighting, ",
	"glamorous":    "glamorous style, fashion photography, ",
}

var portraitSettings = map[string]string{
	"studio":  "studio background, professional lighting, ",
	"outdoor": "outdoor setting, natural lighting, ",
	"urban":   "urban environment, city background, ",
	"nature":  "nature background, scenic environment, ",
}

// PortraitPrompt builds the prompt for a portrait generation.
func PortraitPrompt(p *models.Persona, settings map[string]any) string {
	style := stringSetting(settings, "style", "professional")
	scene := stringSetting(settings, "setting", "studio")
	ageRange, gender := personaTraits(p)

	var b strings.Builder
	fmt.Fprintf(&b, "professional portrait of %s, a %s year old %s, ", p.Name, ageRange, gender)
	b.WriteString(portraitStyles[style])
	b.WriteString(portraitSettings[scene])
	b.WriteString("high quality, detailed, professional photography, ")
	if extra := stringSetting(settings, "additional_prompt", ""); extra != "" {
		fmt.Fprintf(&b, "%s, ", extra)
	}
	return strings.TrimSuffix(b.String(), ", ")
}

// FullBodyPrompt builds the prompt for a full-body generation.
func FullBodyPrompt(p *models.Persona, settings map[string]any) string {
	style := stringSetting(settings, "style", "professional")
	scene := stringSetting(settings, "setting", "studio")
	ageRange, gender := personaTraits(p)

	var b strings.Builder
	fmt.Fprintf(&b, "full body shot of %s, a %s year old %s, ", p.Name, ageRange, gender)
	switch style {
	case "professional":
		b.WriteString("business attire, professional pose, ")
	case "casual":
		b.WriteString("casual attire, relaxed pose, ")
	}
	switch scene {
	case "studio":
		b.WriteString("studio background, professional lighting, ")
	case "outdoor":
		b.WriteString("outdoor setting, natural lighting, ")
	}
	b.WriteString("high quality, detailed, professional photography, full body visible, ")
	if extra := stringSetting(settings, "additional_prompt", ""); extra != "" {
		fmt.Fprintf(&b, "%s, ", extra)
	}
	return strings.TrimSuffix(b.String(), ", ")
}

var actionPhrases = map[string]string{
	"working":    "working on computer, focused expression, ",
	"presenting": "giving a presentation, confident pose, ",
	"meeting":    "in a business meeting, engaged expression, ",
	"exercising": "exercising, athletic pose, ",
}

var actionSettings = map[string]string{
	"office":     "in an office environment, professional setting, ",
	"conference": "in a conference room, business environment, ",
	"outdoor":    "in an outdoor setting, ",
	"gym":        "in a gym, fitness environment, ",
}

// ActionPrompt builds the prompt for an action-scene generation.
func ActionPrompt(p *models.Persona, settings map[string]any) string {
	action := stringSetting(settings, "action", "working")
	scene := stringSetting(settings, "setting", "office")
	ageRange, gender := personaTraits(p)

	var b strings.Builder
	fmt.Fprintf(&b, "%s, a %s year old %s, ", p.Name, ageRange, gender)
	b.WriteString(actionPhrases[action])
	b.WriteString(actionSettings[scene])
	b.WriteString("high quality, detailed, professional photography, ")
	if extra := stringSetting(settings, "additional_prompt", ""); extra != "" {
		fmt.Fprintf(&b, "%s, ", extra)
	}
	return strings.TrimSuffix(b.String(), ", ")
}

var socialPlatforms = map[string]string{
	"instagram": "instagram style post, square format, ",
	"linkedin":  "linkedin professional post, business context, ",
	"twitter":   "twitter post image, engaging content, ",
}

var socialThemes = map[string]string{
	"professional": "professional context, business theme, ",
	"lifestyle":    "lifestyle content, aspirational setting, ",
	"travel":       "travel content, scenic location, ",
	"fitness":      "fitness content, active lifestyle, ",
}

// SocialPostPrompt builds the prompt for a social-media post generation.
func SocialPostPrompt(p *models.Persona, settings map[string]any) string {
	platform := stringSetting(settings, "platform", "instagram")
	theme := stringSetting(settings, "theme", "professional")
	ageRange, gender := personaTraits(p)

	var b strings.Builder
	fmt.Fprintf(&b, "social media post featuring %s, a %s year old %s, ", p.Name, ageRange, gender)
	b.WriteString(socialPlatforms[platform])
	b.WriteString(socialThemes[theme])
	b.WriteString("high quality, detailed, professional photography, social media aesthetic, ")
	if extra := stringSetting(settings, "additional_prompt", ""); extra != "" {
		fmt.Fprintf(&b, "%s, ", extra)
	}
	return strings.TrimSuffix(b.String(), ", ")
}
