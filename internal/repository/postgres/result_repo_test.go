package postgres

import (
	"context"
	"testing"
)

func TestFindResultRejectsMalformedID(t *testing.T) {
	repo := NewResultRepo(nil)
	for _, id := range []string{"", "result-1", "not-a-uuid", "1234"} {
		res, err := repo.FindResult(context.Background(), id)
		if err != nil || res != nil {
			t.Errorf("FindResult(%q) = %v, %v; want nil, nil", id, res, err)
		}
	}
}
