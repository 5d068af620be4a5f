// Package animelist streams <anime> records out of an anime-list XML
// document one at a time, exposing each as an attribute-bearing Node.
package animelist

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const animeElementName = "anime"

// Mapping is one <mapping> child of <mapping-list>: either a season-offset
// node (start/end/offset attributes) or an episode-group node whose text is
// a translator string.
type Mapping struct {
	Attrs map[string]string
	Text  string
}

// Attr returns the attribute value and whether it was present.
func (m Mapping) Attr(name string) (string, bool) {
	v, ok := m.Attrs[name]
	return v, ok
}

// IsEpisodeGroup reports whether the mapping carries episode-group text.
func (m Mapping) IsEpisodeGroup() bool {
	return strings.TrimSpace(m.Text) != ""
}

// Node is one <anime> record.
type Node struct {
	Attrs        map[string]string
	Name         string
	Mappings     []Mapping
	Supplemental map[string]string
	// Line is the 1-based line of the opening tag.
	Line int
}

// Attr returns the attribute value and whether it was present.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// Has reports whether the attribute is present, even when empty.
func (n *Node) Has(name string) bool {
	_, ok := n.Attrs[name]
	return ok
}

type animeElement struct {
	Attrs        []xml.Attr           `xml:",any,attr"`
	Name         string               `xml:"name"`
	Mappings     []mappingElement     `xml:"mapping-list>mapping"`
	Supplemental *supplementalElement `xml:"supplemental-info"`
}

type mappingElement struct {
	Attrs []xml.Attr `xml:",any,attr"`
	Text  string     `xml:",chardata"`
}

type supplementalElement struct {
	Fields []fieldElement `xml:",any"`
}

type fieldElement struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
}

// Reader yields Nodes in document order.
type Reader struct {
	dec    *xml.Decoder
	closer io.Closer
	size   int64
}

// NewReader wraps r. Size, when known, lets Progress report a percentage.
func NewReader(r io.Reader, size int64) *Reader {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	return &Reader{dec: dec, size: size}
}

// Open opens the anime list at path.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open anime list: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat anime list: %w", err)
	}
	r := NewReader(file, info.Size())
	r.closer = file
	return r, nil
}

// Close releases the underlying file when the reader was created with Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Progress returns the percentage of the document consumed, or -1 when the
// size is unknown.
func (r *Reader) Progress() float64 {
	if r.size <= 0 {
		return -1
	}
	return float64(r.dec.InputOffset()) / float64(r.size) * 100
}

// Next returns the next <anime> record, or io.EOF at the end of the document.
func (r *Reader) Next() (*Node, error) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("read anime list: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != animeElementName {
			continue
		}
		line, _ := r.dec.InputPos()
		var el animeElement
		if err := r.dec.DecodeElement(&el, &start); err != nil {
			return nil, fmt.Errorf("decode anime near line %d: %w", line, err)
		}
		return el.node(line), nil
	}
}

func (el animeElement) node(line int) *Node {
	n := &Node{
		Attrs: attrMap(el.Attrs),
		Name:  norm.NFC.String(strings.TrimSpace(el.Name)),
		Line:  line,
	}
	for _, m := range el.Mappings {
		n.Mappings = append(n.Mappings, Mapping{Attrs: attrMap(m.Attrs), Text: strings.TrimSpace(m.Text)})
	}
	if el.Supplemental != nil {
		n.Supplemental = make(map[string]string, len(el.Supplemental.Fields))
		for _, f := range el.Supplemental.Fields {
			key := f.XMLName.Local
			value := norm.NFC.String(strings.TrimSpace(f.Text))
			if _, exists := n.Supplemental[key]; exists || value == "" {
				continue
			}
			n.Supplemental[key] = value
		}
	}
	return n
}

func attrMap(attrs []xml.Attr) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		out[a.Name.Local] = strings.TrimSpace(a.Value)
	}
	return out
}
