package spine

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type Filter struct {
	Min, Mag string
}

// Region is one packed rectangle of an atlas page, in pixels with a top-left origin.
// Size is the region's unrotated width and height; when Rotate is set the
// rectangle occupied in the page is Size with its axes swapped.
type Region struct {
	Name   string
	XY     image.Point
	Size   image.Point
	Orig   image.Point
	Offset image.Point
	// Index is the frame index for sequences, -1 when absent.
	Index  int
	Rotate bool
}

// Footprint is the width and height the region covers in the page.
func (r *Region) Footprint() image.Point {
	if r.Rotate {
		return image.Pt(r.Size.Y, r.Size.X)
	}
	return r.Size
}

// Atlas is a single texture page and the regions packed into it.
type Atlas struct {
	// Name is the page image file name, relative to the atlas file.
	Name    string
	Size    image.Point
	Format  string
	Filter  Filter
	Repeat  string
	Regions []Region
}

func (a *Atlas) Region(name string) (*Region, bool) {
	for i := range a.Regions {
		if a.Regions[i].Name == name {
			return &a.Regions[i], true
		}
	}
	return nil, false
}

const (
	fieldXY     = "xy"
	fieldSize   = "size"
	fieldOrig   = "orig"
	fieldRotate = "rotate"
	fieldOffset = "offset"
	fieldIndex  = "index"
)

// required region fields, in the order they are reported when missing.
var requiredRegionFields = []string{fieldXY, fieldSize, fieldOrig, fieldRotate}

type regionBuilder struct {
	region Region
	line   int
	fields map[string]bool
}

type atlasParser struct {
	pages       []*Atlas
	page        *Atlas
	pageLine    int
	pageHasSize bool
	region      *regionBuilder
	// region name -> line of its first definition
	seen map[string]int
}

// ParseAtlasPages parses a Spine text atlas. Pages are separated by blank lines;
// each page starts with its image file name followed by page attributes and
// then region blocks.
func ParseAtlasPages(r io.Reader) ([]*Atlas, error) {
	p := &atlasParser{seen: make(map[string]int)}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := p.parseLine(lineNo, scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read atlas at line %d", lineNo)
	}
	if err := p.finishPage(); err != nil {
		return nil, err
	}
	return p.pages, nil
}

// ParseAtlas parses an atlas that must contain exactly one page.
func ParseAtlas(r io.Reader) (*Atlas, error) {
	pages, err := ParseAtlasPages(r)
	if err != nil {
		return nil, err
	}
	switch len(pages) {
	case 0:
		return nil, &AtlasError{Msg: "no page found"}
	case 1:
		return pages[0], nil
	default:
		return nil, &AtlasError{Page: pages[1].Name, Msg: fmt.Sprintf("expected a single page, found %d", len(pages))}
	}
}

func (p *atlasParser) parseLine(lineNo int, raw string) error {
	line := strings.TrimSpace(raw)
	if line == "" {
		return p.finishPage()
	}

	key, value, isKV := strings.Cut(line, ":")
	if p.page == nil {
		if isKV {
			return &AtlasError{Line: lineNo, Msg: fmt.Sprintf("expected page image name, got %q", line)}
		}
		p.page = &Atlas{Name: line}
		p.pageLine = lineNo
		p.pageHasSize = false
		return nil
	}

	if !isKV {
		if err := p.finishRegion(); err != nil {
			return err
		}
		p.region = &regionBuilder{
			region: Region{Name: line, Index: -1},
			line:   lineNo,
			fields: make(map[string]bool),
		}
		return nil
	}

	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if p.region == nil {
		return p.parsePageAttribute(lineNo, key, value)
	}
	return p.parseRegionAttribute(lineNo, key, value)
}

func (p *atlasParser) parsePageAttribute(lineNo int, key, value string) error {
	switch key {
	case fieldSize:
		size, err := parsePoint(value)
		if err != nil || size.X < 0 || size.Y < 0 {
			return &AtlasError{Line: lineNo, Page: p.page.Name, Field: key, Msg: fmt.Sprintf("expected two non-negative integers, got %q", value)}
		}
		p.page.Size = size
		p.pageHasSize = true
	case "format":
		p.page.Format = value
	case "filter":
		minify, magnify, ok := strings.Cut(value, ",")
		if !ok {
			magnify = minify
		}
		p.page.Filter = Filter{Min: strings.TrimSpace(minify), Mag: strings.TrimSpace(magnify)}
	case "repeat":
		p.page.Repeat = value
	}
	// Anything else (pma, scale, ...) is passed over.
	return nil
}

func (p *atlasParser) parseRegionAttribute(lineNo int, key, value string) error {
	rb := p.region
	fail := func(msg string) error {
		return &AtlasError{Line: lineNo, Page: p.page.Name, Region: rb.region.Name, Field: key, Msg: msg}
	}

	switch key {
	case fieldRotate:
		switch strings.ToLower(value) {
		case "true", "90":
			rb.region.Rotate = true
		case "false", "0":
			rb.region.Rotate = false
		default:
			return fail(fmt.Sprintf("expected true, false, 0 or 90, got %q", value))
		}
	case fieldXY, fieldSize, fieldOrig, fieldOffset:
		pt, err := parsePoint(value)
		if err != nil {
			return fail(fmt.Sprintf("expected two integers, got %q", value))
		}
		switch key {
		case fieldXY:
			rb.region.XY = pt
		case fieldSize:
			if pt.X < 0 || pt.Y < 0 {
				return fail(fmt.Sprintf("size must not be negative, got %q", value))
			}
			rb.region.Size = pt
		case fieldOrig:
			rb.region.Orig = pt
		case fieldOffset:
			rb.region.Offset = pt
		}
	case fieldIndex:
		idx, err := strconv.Atoi(value)
		if err != nil {
			return fail(fmt.Sprintf("expected an integer, got %q", value))
		}
		rb.region.Index = idx
	default:
		// Unknown keys (split, pad, ...) are ignored.
		return nil
	}
	rb.fields[key] = true
	return nil
}

func (p *atlasParser) finishRegion() error {
	rb := p.region
	if rb == nil {
		return nil
	}
	p.region = nil

	for _, f := range requiredRegionFields {
		if !rb.fields[f] {
			return &AtlasError{Line: rb.line, Page: p.page.Name, Region: rb.region.Name, Field: f, Msg: "missing field"}
		}
	}

	if first, ok := p.seen[rb.region.Name]; ok {
		return &AtlasError{Line: rb.line, Page: p.page.Name, Region: rb.region.Name, Msg: fmt.Sprintf("duplicate region name, first defined at line %d", first)}
	}

	if p.page.Size.X > 0 && p.page.Size.Y > 0 {
		bounds := image.Rectangle{Min: rb.region.XY, Max: rb.region.XY.Add(rb.region.Footprint())}
		if !bounds.In(image.Rect(0, 0, p.page.Size.X, p.page.Size.Y)) {
			return &AtlasError{Line: rb.line, Page: p.page.Name, Region: rb.region.Name, Field: fieldXY, Msg: fmt.Sprintf("region %v exceeds page size %v", bounds, p.page.Size)}
		}
	}

	p.seen[rb.region.Name] = rb.line
	p.page.Regions = append(p.page.Regions, rb.region)
	return nil
}

func (p *atlasParser) finishPage() error {
	if p.page == nil {
		return nil
	}
	if err := p.finishRegion(); err != nil {
		return err
	}
	if !p.pageHasSize {
		return &AtlasError{Line: p.pageLine, Page: p.page.Name, Field: fieldSize, Msg: "missing field"}
	}
	p.pages = append(p.pages, p.page)
	p.page = nil
	return nil
}

func parsePoint(value string) (image.Point, error) {
	xs, ys, ok := strings.Cut(value, ",")
	if !ok {
		return image.Point{}, fmt.Errorf("expected 'x, y', got %q", value)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return image.Point{}, err
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(x, y), nil
}
