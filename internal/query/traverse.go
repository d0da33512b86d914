package query

import "fmt"

// TraversalInput carries the relationship-traversal directives of one
// request.
type TraversalInput struct {
	// Ancestors names edge classes to follow inward, unbounded.
	Ancestors []string

	// Descendants names edge classes to follow outward, unbounded.
	Descendants []string

	// FuzzyMatch bounds a bidirectional walk over the fuzzy-equivalence
	// edge classes; zero disables it.
	FuzzyMatch int

	// ActiveOnly restricts traversal to non-deleted nodes.
	ActiveOnly bool
}

// ResolveTraversals converts traversal directives into alternative ordered
// hop sequences. fuzzyClasses is the configured fuzzy-equivalence edge
// class set (aliasing and deprecation edges).
//
// Ancestors produce one unbounded inward hop, descendants the outward
// symmetric case. A fuzzy hop stands alone when no other hops exist;
// otherwise it is spliced both before and after each existing sequence so
// fuzzy equivalents of ancestors and descendants are matched too.
//
// An empty result means no traversal is required.
func ResolveTraversals(in TraversalInput, fuzzyClasses []string) ([][]Follow, error) {
	if in.FuzzyMatch < 0 {
		return nil, fmt.Errorf("fuzzyMatch must be non-negative, got %d", in.FuzzyMatch)
	}

	var sequences [][]Follow

	if len(in.Ancestors) > 0 {
		hop, err := NewFollow(in.Ancestors, DirectionIn, Unbounded, in.ActiveOnly)
		if err != nil {
			return nil, fmt.Errorf("resolve ancestors: %w", err)
		}
		sequences = append(sequences, []Follow{hop})
	}

	if len(in.Descendants) > 0 {
		hop, err := NewFollow(in.Descendants, DirectionOut, Unbounded, in.ActiveOnly)
		if err != nil {
			return nil, fmt.Errorf("resolve descendants: %w", err)
		}
		sequences = append(sequences, []Follow{hop})
	}

	if in.FuzzyMatch > 0 {
		fuzzy, err := NewFollow(fuzzyClasses, DirectionBoth, in.FuzzyMatch, in.ActiveOnly)
		if err != nil {
			return nil, fmt.Errorf("resolve fuzzyMatch: %w", err)
		}
		if len(sequences) == 0 {
			sequences = append(sequences, []Follow{fuzzy})
		} else {
			for i, seq := range sequences {
				spliced := make([]Follow, 0, len(seq)+2)
				spliced = append(spliced, fuzzy)
				spliced = append(spliced, seq...)
				spliced = append(spliced, fuzzy)
				sequences[i] = spliced
			}
		}
	}

	return sequences, nil
}
