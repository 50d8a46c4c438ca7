// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package builder

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/IncludeGraph/services/depgraph/node"
)

// Quote type names accepted by ParseQuoteTypes.
const (
	QuoteTypesBoth  = "both"
	QuoteTypesAngle = "angle"
	QuoteTypesQuote = "quote"
)

// IncludePolicy selects which include classifications are followed.
type IncludePolicy struct {
	// User enables "..." includes.
	User bool

	// System enables <...> includes.
	System bool
}

// AllIncludes follows both user and system includes.
func AllIncludes() IncludePolicy {
	return IncludePolicy{User: true, System: true}
}

// Allows reports whether ref passes the policy.
func (p IncludePolicy) Allows(ref node.IncludeReference) bool {
	if ref.IsSystem {
		return p.System
	}
	return p.User
}

// String returns the quote type name for the policy.
func (p IncludePolicy) String() string {
	switch {
	case p.User && p.System:
		return QuoteTypesBoth
	case p.System:
		return QuoteTypesAngle
	case p.User:
		return QuoteTypesQuote
	default:
		return "none"
	}
}

// ParseQuoteTypes maps "both", "angle" or "quote" to a policy.
//
// # Inputs
//
//   - s: Quote type name, case-insensitive. "" means both.
//
// # Outputs
//
//   - IncludePolicy: The matching policy.
//   - error: ErrInvalidQuoteTypes for any other value.
func ParseQuoteTypes(s string) (IncludePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", QuoteTypesBoth:
		return AllIncludes(), nil
	case QuoteTypesAngle:
		return IncludePolicy{System: true}, nil
	case QuoteTypesQuote:
		return IncludePolicy{User: true}, nil
	default:
		return IncludePolicy{}, fmt.Errorf("%w: %q (want both, angle or quote)", ErrInvalidQuoteTypes, s)
	}
}
