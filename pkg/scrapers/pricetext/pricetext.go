// Package pricetext parses the price labels Austrian shops print, such as
// "€ 1,99", "1.299,00 €", "statt 2,49" or "ab 3 Stk. je 1,49 €".
package pricetext

import (
	"regexp"
	"strconv"
	"strings"

	"cleanuri/pkg/errs"

	"github.com/shopspring/decimal"
)

var (
	numberRE = regexp.MustCompile(`\d[\d.,]*`)
	tierRE   = regexp.MustCompile(`(?i)\bab\s*(\d+)\s*(?:stk\.?|stück|x)?(.*)`)
)

// Parse reads the first amount in s. Both "1.299,00" and "1299.00" are
// understood; a dot followed by exactly three digits is a thousands
// separator.
func Parse(s string) (decimal.Decimal, error) {
	num := numberRE.FindString(s)
	if num == "" {
		return decimal.Decimal{}, errs.InvalidArgument("no amount in %q", s)
	}
	num = strings.TrimRight(num, ".,")

	switch {
	case strings.Contains(num, ","):
		num = strings.ReplaceAll(num, ".", "")
		num = strings.Replace(num, ",", ".", 1)
	case strings.Count(num, ".") > 1 || isThousands(num):
		num = strings.ReplaceAll(num, ".", "")
	}

	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Decimal{}, errs.InvalidArgument("amount %q: %v", s, err)
	}
	return d, nil
}

func isThousands(num string) bool {
	i := strings.LastIndexByte(num, '.')
	return i >= 0 && len(num)-i-1 == 3
}

// ParseTier reads a quantity discount label like "ab 3 Stk. je 1,49 €".
func ParseTier(s string) (int, decimal.Decimal, error) {
	m := tierRE.FindStringSubmatch(s)
	if m == nil {
		return 0, decimal.Decimal{}, errs.InvalidArgument("no quantity tier in %q", s)
	}

	quantity, err := strconv.Atoi(m[1])
	if err != nil || quantity <= 0 {
		return 0, decimal.Decimal{}, errs.InvalidArgument("tier quantity in %q", s)
	}
	price, err := Parse(m[2])
	if err != nil {
		return 0, decimal.Decimal{}, err
	}
	return quantity, price, nil
}
