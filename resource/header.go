/*******************************************************************************
 * Copyright (c) 2025 Genome Research Ltd.
 *
 * Permission is hereby granted, free of charge, to any person obtaining
 * a copy of this software and associated documentation files (the
 * "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish,
 * distribute, sublicense, and/or sell copies of the Software, and to
 * permit persons to whom the Software is furnished to do so, subject to
 * the following conditions:
 *
 * The above copyright notice and this permission notice shall be included
 * in all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
 * EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
 * MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY
 * CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT,
 * TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 ******************************************************************************/

package resource

// Header records one run of a tool over a codebase.
type Header struct {
	ToolName            string
	ToolVersion         string
	Options             map[string]any
	Notice              string
	StartTimestamp      string
	EndTimestamp        string
	OutputFormatVersion string
	Duration            string
	Message             string
	Errors              []string
	Warnings            []string
	ExtraData           map[string]any
}

// NewHeader returns a Header with empty collections.
func NewHeader(toolName string) *Header {
	return &Header{
		ToolName:  toolName,
		Options:   map[string]any{},
		Errors:    []string{},
		Warnings:  []string{},
		ExtraData: map[string]any{},
	}
}

// HeaderFromMap returns a Header from its mapping form. Unknown keys are
// ignored.
func HeaderFromMap(data map[string]any) *Header {
	return &Header{
		ToolName:            toString(data["tool_name"]),
		ToolVersion:         toString(data["tool_version"]),
		Options:             toMap(data["options"]),
		Notice:              toString(data["notice"]),
		StartTimestamp:      toString(data["start_timestamp"]),
		EndTimestamp:        toString(data["end_timestamp"]),
		OutputFormatVersion: toString(data["output_format_version"]),
		Duration:            toString(data["duration"]),
		Message:             toString(data["message"]),
		Errors:              toStrings(data["errors"]),
		Warnings:            toStrings(data["warnings"]),
		ExtraData:           toMap(data["extra_data"]),
	}
}

// ToDict returns the mapping form of the header.
func (h *Header) ToDict() Dict {
	return Dict{
		"tool_name", h.ToolName,
		"tool_version", h.ToolVersion,
		"options", CopyValue(nonNilMap(h.Options)),
		"notice", h.Notice,
		"start_timestamp", h.StartTimestamp,
		"end_timestamp", h.EndTimestamp,
		"output_format_version", h.OutputFormatVersion,
		"duration", h.Duration,
		"message", h.Message,
		"errors", stringsToAny(h.Errors),
		"warnings", stringsToAny(h.Warnings),
		"extra_data", CopyValue(nonNilMap(h.ExtraData)),
	}
}

// Clone returns a deep copy of the header.
func (h *Header) Clone() *Header {
	c := *h
	c.Options = toMap(h.Options)
	c.ExtraData = toMap(h.ExtraData)
	c.Errors = append([]string{}, h.Errors...)
	c.Warnings = append([]string{}, h.Warnings...)

	return &c
}

// AddExtraData sets a key of the header's extra data.
func (h *Header) AddExtraData(key string, v any) {
	if h.ExtraData == nil {
		h.ExtraData = map[string]any{}
	}

	h.ExtraData[key] = v
}

// ExtraDataKeys returns the sorted keys of the header's extra data.
func (h *Header) ExtraDataKeys() []string {
	return sortedKeys(h.ExtraData)
}
