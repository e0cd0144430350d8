// Package criteria validates jGrants search parameters before anything is sent upstream.
package criteria

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/jgrants-mcp/internal/domain"
)

// Keyword length bounds, counted in characters after trimming.
const (
	MinKeywordLength = 2
	MaxKeywordLength = 255
)

// DefaultKeyword is used by the overview, which takes no caller criteria.
const DefaultKeyword = "事業"

// Params carries raw tool arguments. Empty strings mean "not given".
type Params struct {
	Keyword                 string
	UsePurpose              string
	Industry                string
	TargetNumberOfEmployees string
	TargetAreaSearch        string
	Sort                    string
	Order                   string
	Acceptance              *int
}

// Criteria is a validated search query.
type Criteria struct {
	keyword    string
	usePurpose string
	industry   string
	employees  string
	area       string
	sort       string
	order      string
	acceptance int
}

// New validates params. Defaults: sort=acceptance_end_datetime, order=ASC, acceptance=1.
// Errors wrap domain.ErrInvalidArgument.
func New(p Params) (Criteria, error) {
	keyword := strings.TrimSpace(p.Keyword)
	if n := utf8.RuneCountInString(keyword); n < MinKeywordLength || n > MaxKeywordLength {
		return Criteria{}, fmt.Errorf("%w: keyword must be a non-empty string of %d-%d characters",
			domain.ErrInvalidArgument, MinKeywordLength, MaxKeywordLength)
	}

	acceptance := 1
	if p.Acceptance != nil {
		acceptance = *p.Acceptance
	}
	if acceptance != 0 && acceptance != 1 {
		return Criteria{}, fmt.Errorf("%w: acceptance must be 0 or 1", domain.ErrInvalidArgument)
	}

	sort := p.Sort
	if sort == "" {
		sort = SortAcceptanceEnd
	}
	if !slices.Contains(SortFields, sort) {
		return Criteria{}, fmt.Errorf("%w: sort must be one of %s",
			domain.ErrInvalidArgument, strings.Join(SortFields, " / "))
	}

	order := strings.ToUpper(strings.TrimSpace(p.Order))
	if order == "" {
		order = OrderASC
	}
	if order != OrderASC && order != OrderDESC {
		return Criteria{}, fmt.Errorf("%w: order must be ASC or DESC", domain.ErrInvalidArgument)
	}

	c := Criteria{keyword: keyword, sort: sort, order: order, acceptance: acceptance}

	var err error
	if c.usePurpose, err = checkVocabulary("use_purpose", p.UsePurpose, UsePurposes); err != nil {
		return Criteria{}, err
	}
	if c.industry, err = checkVocabulary("industry", p.Industry, Industries); err != nil {
		return Criteria{}, err
	}
	if c.employees, err = checkVocabulary("target_number_of_employees", p.TargetNumberOfEmployees, EmployeeBands); err != nil {
		return Criteria{}, err
	}
	if c.area, err = checkVocabulary("target_area_search", p.TargetAreaSearch, Areas); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

// Default returns the fixed criteria used for the overview statistics.
func Default() Criteria {
	c, err := New(Params{Keyword: DefaultKeyword})
	if err != nil {
		panic("default search criteria are invalid: " + err.Error())
	}
	return c
}

// Keyword returns the trimmed keyword. Upstream folds width and case itself.
func (c Criteria) Keyword() string { return c.keyword }

// Sort returns the sort field.
func (c Criteria) Sort() string { return c.sort }

// Order returns ASC or DESC.
func (c Criteria) Order() string { return c.order }

// Acceptance returns 1 when only currently accepting subsidies are requested.
func (c Criteria) Acceptance() int { return c.acceptance }

// Query builds the upstream query string. Optional filters appear only when set.
func (c Criteria) Query() url.Values {
	q := url.Values{}
	q.Set("keyword", c.keyword)
	q.Set("sort", c.sort)
	q.Set("order", c.order)
	q.Set("acceptance", strconv.Itoa(c.acceptance))
	setIf(q, "use_purpose", c.usePurpose)
	setIf(q, "industry", c.industry)
	setIf(q, "target_number_of_employees", c.employees)
	setIf(q, "target_area_search", c.area)
	return q
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

// checkVocabulary verifies every delimited value of a filter. Blank input means unset.
func checkVocabulary(field, value string, vocabulary []string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	parts := strings.Split(value, Delimiter)
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if !slices.Contains(vocabulary, part) {
			return "", fmt.Errorf("%w: %s has unknown value %q", domain.ErrInvalidArgument, field, part)
		}
		parts[i] = part
	}
	return strings.Join(parts, Delimiter), nil
}
