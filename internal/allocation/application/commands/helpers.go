package commands

import (
	"errors"
	"slices"

	"github.com/felixgeelhaar/allot/internal/allocation/domain"
)

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

func sortIDs(ids []int64) []int64 {
	slices.Sort(ids)
	return slices.Compact(ids)
}
