package track

import (
	"sort"
	"strings"
)

const (
	DefaultCircuitID   = 0
	DefaultCircuitName = "Unknown Circuit"
)

type Circuit struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	// keywords match race names such as "Saudi Arabian Grand Prix"
	keywords []string
	build    func() *Path
}

// Path builds a fresh outline for the circuit.
func (c Circuit) Path() *Path {
	return c.build()
}

var circuits = map[int]Circuit{
	DefaultCircuitID: {ID: DefaultCircuitID, Name: DefaultCircuitName, build: defaultOval},
	1:                {ID: 1, Name: "Bahrain International Circuit", keywords: []string{"bahrain", "sakhir"}, build: bahrain},
	2:                {ID: 2, Name: "Jeddah Corniche Circuit", keywords: []string{"jeddah", "saudi"}, build: jeddah},
	3:                {ID: 3, Name: "Albert Park Circuit", keywords: []string{"albert park", "australia", "melbourne"}, build: albertPark},
	4:                {ID: 4, Name: "Miami International Autodrome", keywords: []string{"miami"}, build: miami},
	5:                {ID: 5, Name: "Circuit de Monaco", keywords: []string{"monaco", "monte carlo"}, build: monaco},
}

// CircuitByID returns the circuit with the given id or the default oval.
func CircuitByID(id int) Circuit {
	if c, ok := circuits[id]; ok {
		return c
	}
	return circuits[DefaultCircuitID]
}

// CircuitByName matches a circuit name or any text mentioning the venue
// ("2023 Monaco Grand Prix"). Unknown names give the default oval and false.
func CircuitByName(name string) (Circuit, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return circuits[DefaultCircuitID], false
	}
	for _, c := range Circuits() {
		if strings.ToLower(c.Name) == needle && c.ID != DefaultCircuitID {
			return c, true
		}
		for _, k := range c.keywords {
			if strings.Contains(needle, k) {
				return c, true
			}
		}
	}
	return circuits[DefaultCircuitID], false
}

// Circuits lists the catalog ordered by id.
func Circuits() []Circuit {
	out := make([]Circuit, 0, len(circuits))
	for _, c := range circuits {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

func defaultOval() *Path {
	return NewPath().
		MoveTo(100, 50).
		CubicTo(300, 0, 500, 100, 400, 200).
		CubicTo(350, 250, 250, 300, 200, 280).
		CubicTo(100, 250, 50, 150, 100, 50).
		Close()
}

func bahrain() *Path {
	return NewPath().
		MoveTo(100, 150).
		LineTo(350, 150).
		LineTo(400, 100).
		LineTo(450, 150).
		LineTo(450, 250).
		LineTo(400, 300).
		LineTo(350, 250).
		LineTo(250, 350).
		LineTo(150, 350).
		LineTo(100, 300).
		LineTo(50, 200).
		Close()
}

func jeddah() *Path {
	return NewPath().
		MoveTo(100, 100).
		LineTo(450, 100).
		LineTo(450, 350).
		CubicTo(400, 400, 200, 400, 150, 350).
		LineTo(150, 250).
		LineTo(250, 200).
		LineTo(150, 150).
		Close()
}

func albertPark() *Path {
	return NewPath().
		MoveTo(100, 150).
		CubicTo(150, 50, 350, 50, 400, 150).
		CubicTo(450, 200, 450, 300, 400, 350).
		CubicTo(350, 400, 150, 400, 100, 350).
		CubicTo(50, 300, 50, 200, 100, 150)
}

func miami() *Path {
	return NewPath().
		MoveTo(100, 150).
		LineTo(400, 150).
		CubicTo(450, 150, 450, 250, 400, 250).
		LineTo(300, 250).
		LineTo(250, 300).
		LineTo(150, 300).
		LineTo(100, 250).
		Close()
}

func monaco() *Path {
	return NewPath().
		MoveTo(100, 200).
		CubicTo(100, 150, 150, 100, 200, 100).
		LineTo(400, 100).
		CubicTo(450, 100, 450, 150, 450, 200).
		LineTo(400, 250).
		LineTo(300, 250).
		LineTo(250, 350).
		LineTo(200, 350).
		LineTo(150, 300).
		LineTo(150, 250).
		Close()
}
