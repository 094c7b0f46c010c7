package browser

import (
	_ "embed"
	"fmt"

	"vips_analyzer/domain/entities"
)

// walkScript walks the live DOM from document.documentElement and returns
// raw element facts plus page metrics. It runs synchronously in the page.
//
//go:embed walk.js
var walkScript string

// DecodePage converts the value returned by walkScript into a RawPage.
func DecodePage(v interface{}) (*entities.RawPage, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected walk result type %T", v)
	}
	rootData, ok := m["root"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("walk result has no root element")
	}

	return &entities.RawPage{
		Metrics: entities.PageMetrics{
			ScrollX:        getFloat(m, "scrollX"),
			ScrollY:        getFloat(m, "scrollY"),
			ViewportWidth:  getFloat(m, "viewportWidth"),
			ViewportHeight: getFloat(m, "viewportHeight"),
			PageWidth:      getFloat(m, "pageWidth"),
			PageHeight:     getFloat(m, "pageHeight"),
		},
		Root: decodeElement(rootData),
	}, nil
}

func decodeElement(m map[string]interface{}) *entities.RawElement {
	el := &entities.RawElement{
		Tag:         getString(m, "tag"),
		ID:          getString(m, "id"),
		ClassName:   getString(m, "className"),
		Role:        getString(m, "role"),
		Text:        getString(m, "text"),
		Display:     getString(m, "display"),
		Visibility:  getString(m, "visibility"),
		Opacity:     getString(m, "opacity"),
		Interactive: getInt(m, "interactive"),
		Hidden:      getBool(m, "hidden"),
	}

	if rect, ok := m["rect"].(map[string]interface{}); ok {
		el.Rect = entities.RawRect{
			Left:   getFloat(rect, "left"),
			Top:    getFloat(rect, "top"),
			Width:  getFloat(rect, "width"),
			Height: getFloat(rect, "height"),
		}
	}

	if children, ok := m["children"].([]interface{}); ok {
		el.Children = make([]*entities.RawElement, 0, len(children))
		for _, c := range children {
			if cm, ok := c.(map[string]interface{}); ok {
				el.Children = append(el.Children, decodeElement(cm))
			}
		}
	}

	return el
}

// getString - extracts string value from map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// getBool - extracts boolean value from map
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// getInt - extracts integer value from map
func getInt(m map[string]interface{}, key string) int {
	return int(getFloat(m, key))
}

// getFloat - extracts numeric value from map; drivers report JS numbers as
// int or float64 depending on the value
func getFloat(m map[string]interface{}, key string) float64 {
	if v, ok := m[key]; ok {
		switch val := v.(type) {
		case float64:
			return val
		case float32:
			return float64(val)
		case int:
			return float64(val)
		case int64:
			return float64(val)
		}
	}
	return 0
}
