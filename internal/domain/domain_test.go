package domain_test

import (
	"errors"
	"testing"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
)

func ptr(s string) *string { return &s }

func TestProductRef_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		ref      domain.ProductRef
		wantType domain.ProductType
		wantID   string
		wantErr  error
	}{
		{"article", domain.ProductRef{ArticleID: ptr("a1")}, domain.ProductArticle, "a1", nil},
		{"book", domain.ProductRef{BookID: ptr("b1")}, domain.ProductBook, "b1", nil},
		{"course", domain.ProductRef{CourseID: ptr("c1")}, domain.ProductCourse, "c1", nil},
		{"book with empty article", domain.ProductRef{ArticleID: ptr(""), BookID: ptr("b1")}, domain.ProductBook, "b1", nil},
		{"none", domain.ProductRef{}, "", "", domain.ErrMissingProductReference},
		{"both", domain.ProductRef{ArticleID: ptr("a1"), BookID: ptr("b1")}, "", "", domain.ErrMissingProductReference},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			typ, id, err := tc.ref.Resolve()
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if typ != tc.wantType || id != tc.wantID {
				t.Errorf("got (%s, %s), want (%s, %s)", typ, id, tc.wantType, tc.wantID)
			}
		})
	}
}

func TestProductRefFor_SetsOnlyOneField(t *testing.T) {
	ref := domain.ProductRefFor(domain.ProductCourse, "c1")
	if ref.ArticleID != nil || ref.BookID != nil || ref.CourseID == nil || *ref.CourseID != "c1" {
		t.Errorf("ref = %+v", ref)
	}
}

func TestCommissionFor(t *testing.T) {
	tests := []struct {
		amount int64
		rate   int
		want   int64
	}{
		{1200, 20, 240},
		{999, 20, 199},
		{1, 50, 0},
		{10000, 100, 10000},
	}
	for _, tc := range tests {
		if got := domain.CommissionFor(tc.amount, tc.rate); got != tc.want {
			t.Errorf("CommissionFor(%d, %d) = %d, want %d", tc.amount, tc.rate, got, tc.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := domain.NormalizeEmail("  Ann@Example.COM "); got != "ann@example.com" {
		t.Errorf("got %q", got)
	}
}

func TestIsInterest(t *testing.T) {
	if !domain.IsInterest("Spiritual Development") {
		t.Error("known interest rejected")
	}
	if domain.IsInterest("mindset") {
		t.Error("interest tags are case-sensitive")
	}
	if len(domain.Interests) != 17 {
		t.Errorf("len(Interests) = %d, want 17", len(domain.Interests))
	}
}
