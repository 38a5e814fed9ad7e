package rownoise

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	keyGreenDiffWeights   = "green_diff_weights"
	keyDarkColRowWeights  = "dark_col_row_weights"
	keyDarkColMeanWeights = "dark_col_mean_weights"
	keyOffset             = "offset"
)

// MarshalYAML renders the weights in packing order. Empty arrays are written
// as null so that the document keeps the same keys whichever features are
// enabled.
func (w ModelHalfWeights) MarshalYAML() (interface{}, error) {
	green := make([]*yaml.Node, 0, len(w.GreenDiffWeights))
	for _, pair := range w.GreenDiffWeights {
		green = append(green, floatSeqNode(pair[:]))
	}

	darkRows := make([]*yaml.Node, 0, len(w.DarkColRowWeights))
	for _, block := range w.DarkColRowWeights {
		darkRows = append(darkRows, seqNode(floatSeqNode(block[0][:]), floatSeqNode(block[1][:])))
	}

	return &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
		Content: []*yaml.Node{
			strNode(keyGreenDiffWeights), seqNode(green...),
			strNode(keyDarkColRowWeights), seqNode(darkRows...),
			strNode(keyDarkColMeanWeights), floatSeqNode(w.DarkColMeanWeights),
			strNode(keyOffset), floatNode(w.Offset),
		},
	}, nil
}

type halfWeightsDocument struct {
	GreenDiffWeights   [][]float64   `yaml:"green_diff_weights"`
	DarkColRowWeights  [][][]float64 `yaml:"dark_col_row_weights"`
	DarkColMeanWeights []float64     `yaml:"dark_col_mean_weights"`
	Offset             float64       `yaml:"offset"`
}

// UnmarshalYAML accepts the form written by MarshalYAML. Missing and null
// arrays are read as empty.
func (w *ModelHalfWeights) UnmarshalYAML(value *yaml.Node) error {
	var doc halfWeightsDocument
	if err := value.Decode(&doc); err != nil {
		return err
	}

	out := ModelHalfWeights{Offset: doc.Offset}

	for i, pair := range doc.GreenDiffWeights {
		if len(pair) != 2 {
			return fmt.Errorf("line %d: %s[%d] has %d entries, expected 2", value.Line, keyGreenDiffWeights, i, len(pair))
		}
		out.GreenDiffWeights = append(out.GreenDiffWeights, [2]float64{pair[0], pair[1]})
	}

	if n := len(doc.DarkColRowWeights); n > 0 && n%2 == 0 {
		return fmt.Errorf("line %d: %s has %d blocks, expected an odd number", value.Line, keyDarkColRowWeights, n)
	}
	for i, block := range doc.DarkColRowWeights {
		if len(block) != 2 {
			return fmt.Errorf("line %d: %s[%d] has %d rows, expected 2", value.Line, keyDarkColRowWeights, i, len(block))
		}

		var b [2][darkColBlock]float64
		for half, row := range block {
			if len(row) != darkColBlock {
				return fmt.Errorf("line %d: %s[%d][%d] has %d entries, expected %d", value.Line, keyDarkColRowWeights, i, half, len(row), darkColBlock)
			}
			copy(b[half][:], row)
		}
		out.DarkColRowWeights = append(out.DarkColRowWeights, b)
	}

	if n := len(doc.DarkColMeanWeights); n > 0 {
		if n != darkColBlock {
			return fmt.Errorf("line %d: %s has %d entries, expected %d", value.Line, keyDarkColMeanWeights, n, darkColBlock)
		}
		out.DarkColMeanWeights = doc.DarkColMeanWeights
	}

	*w = out

	return nil
}

// Serialize writes the model as YAML.
func (m ModelWeights) Serialize(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return err
	}

	return enc.Close()
}

// String returns the YAML form of the model.
func (m ModelWeights) String() string {
	var buf bytes.Buffer
	if err := m.Serialize(&buf); err != nil {
		return fmt.Sprintf("<unserializable model weights: %v>", err)
	}

	return buf.String()
}

// ParseModelWeights reads a model written by Serialize and checks that both
// halves describe the same hyperparameters.
func ParseModelWeights(r io.Reader) (ModelWeights, ModelParameters, error) {
	var out ModelWeights
	if err := yaml.NewDecoder(r).Decode(&out); err != nil {
		return ModelWeights{}, ModelParameters{}, fmt.Errorf("parsing model weights: %w", err)
	}

	params, err := out.Parameters()
	if err != nil {
		return ModelWeights{}, ModelParameters{}, err
	}

	return out, params, nil
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func nullNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

// seqNode returns a sequence, or null if there are no children.
func seqNode(children ...*yaml.Node) *yaml.Node {
	if len(children) == 0 {
		return nullNode()
	}

	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: children}
}

func floatSeqNode(vals []float64) *yaml.Node {
	children := make([]*yaml.Node, 0, len(vals))
	for _, v := range vals {
		children = append(children, floatNode(v))
	}

	return seqNode(children...)
}

func floatNode(v float64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(v)}
}

// formatFloat renders v as a plain YAML float. Integral values keep a
// trailing .0 so that they are not read back as integers.
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return ".nan"
	case math.IsInf(v, 1):
		return ".inf"
	case math.IsInf(v, -1):
		return "-.inf"
	}

	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}

	return s
}
