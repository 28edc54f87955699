package wibeee

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

const (
	PHASE_TAG_PREFIX = "fase"
)

// Element is a direct child of the status document root.
type Element struct {
	Tag   string
	Value string
}

// Field is an Element whose tag has been split into phase and metric.
type Field struct {
	Element
	Phase  int
	Metric string
}

// Status is the parsed form of a status document. It is never modified after
// ParseStatus returns, so it can be shared between readers.
type Status struct {
	elements []Element
	index    map[string]string
}

// ParseStatus walks the direct children of the document root in document
// order. Any decoding problem is reported as ErrMalformedPayload.
func ParseStatus(body []byte) (*Status, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	status := &Status{
		index: make(map[string]string),
	}

	depth := 0
	rootSeen := false
	var current *Element
	var text strings.Builder

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 1:
				if rootSeen {
					return nil, fmt.Errorf("%w: more than one root element", ErrMalformedPayload)
				}
				rootSeen = true
			case 2:
				current = &Element{Tag: t.Name.Local}
				text.Reset()
			}
		case xml.EndElement:
			if depth == 2 && current != nil {
				current.Value = text.String()
				status.elements = append(status.elements, *current)
				// later duplicates win, same as a linear scan that keeps the last match
				status.index[current.Tag] = current.Value
				current = nil
			}
			depth--
		case xml.CharData:
			switch depth {
			case 0:
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, fmt.Errorf("%w: text outside of the root element", ErrMalformedPayload)
				}
			case 2:
				text.Write(t)
			}
		}
	}

	if !rootSeen {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedPayload)
	}
	return status, nil
}

// Elements returns a copy of the parsed elements in document order.
func (s *Status) Elements() []Element {
	out := make([]Element, len(s.elements))
	copy(out, s.elements)
	return out
}

// Lookup returns the text of the element with the given tag.
func (s *Status) Lookup(tag string) (string, bool) {
	value, ok := s.index[tag]
	return value, ok
}

func (s *Status) Len() int {
	return len(s.elements)
}

// ParseTag splits a tag such as "fase1_p_activa" on its first underscore into
// the phase number (1) and the metric key ("p_activa").
func ParseTag(tag string) (int, string, error) {
	token, metric, found := strings.Cut(tag, "_")
	if !found {
		return 0, "", fmt.Errorf("%w: %q has no metric part", ErrMalformedTag, tag)
	}
	phase, err := strconv.Atoi(strings.TrimPrefix(token, PHASE_TAG_PREFIX))
	if err != nil {
		return 0, "", fmt.Errorf("%w: %q has no phase number: %v", ErrMalformedTag, tag, err)
	}
	return phase, metric, nil
}

// Enumerate selects the fields that become readings. The walk stops at the
// first element whose phase is above phases; elements after it are never
// considered, even if they belong to a lower phase. Metrics outside the
// exposed set are parsed and dropped.
func Enumerate(status *Status, phases int) ([]Field, error) {
	var fields []Field
	for _, elem := range status.elements {
		phase, metric, err := ParseTag(elem.Tag)
		if err != nil {
			return nil, err
		}
		if phase > phases {
			break
		}
		if !IsExposedMetric(metric) {
			continue
		}
		fields = append(fields, Field{
			Element: elem,
			Phase:   phase,
			Metric:  metric,
		})
	}
	return fields, nil
}
