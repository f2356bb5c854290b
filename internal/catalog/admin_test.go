package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DongSeo/platform/internal/apperr"
)

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func TestToCode(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", "ITEM"},
		{"   ", "ITEM"},
		{"쉐누", "ITEM"},
		{" slim  frame ", "SLIM_FRAME"},
		{"Door-Lock 2", "DOORLOCK_2"},
		{"목재 WOOD lumber", "_WOOD_LUMBER"},
		{strings.Repeat("a", 60), strings.Repeat("A", 50)},
	}
	for _, tc := range cases {
		if got := ToCode(tc.in); got != tc.want {
			t.Fatalf("ToCode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCreateCompanySuffixesDuplicateCode(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first, err := store.CreateCompany(ctx, CompanyInput{Name: "Chenous Seoul"})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	if first.Code != "CHENOUS_SEOUL" {
		t.Fatalf("code = %q", first.Code)
	}

	second, err := store.CreateCompany(ctx, CompanyInput{Name: "Chenous Seoul"})
	if err != nil {
		t.Fatalf("CreateCompany duplicate: %v", err)
	}
	if second.Code != "CHENOUS_SEOUL_1700000000000" {
		t.Fatalf("duplicate code = %q", second.Code)
	}

	if _, err := store.CreateCompany(ctx, CompanyInput{Name: "  "}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	companies, err := store.ListCompanies(ctx)
	if err != nil || len(companies) != 2 || companies[0].ID != first.ID {
		t.Fatalf("ListCompanies = %+v, %v", companies, err)
	}
}

func TestCreateCategoryValidatesReferences(t *testing.T) {
	store, database := newTestStore(t)
	f := seedFixture(t, database)
	ctx := context.Background()

	_, err := store.CreateCategory(ctx, CategoryInput{CompanyID: int64Ptr(999), Name: "몰딩"})
	if err == nil || err.Error() != MsgCompanyNotFound {
		t.Fatalf("expected company not found, got %v", err)
	}
	_, err = store.CreateCategory(ctx, CategoryInput{CompanyID: &f.company, ParentID: int64Ptr(999), Name: "몰딩"})
	if err == nil || err.Error() != MsgParentCategoryNotFound {
		t.Fatalf("expected parent not found, got %v", err)
	}

	sub, err := store.CreateCategory(ctx, CategoryInput{CompanyID: &f.company, ParentID: &f.frame, Name: "slim frame"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if sub.Code != "SLIM_FRAME" || sub.ParentID == nil || *sub.ParentID != f.frame {
		t.Fatalf("unexpected category %+v", sub)
	}

	dup, err := store.CreateCategory(ctx, CategoryInput{CompanyID: &f.company, Name: "x", Code: "FRAME"})
	if err != nil {
		t.Fatalf("CreateCategory duplicate: %v", err)
	}
	if dup.Code != "FRAME_1700000000000" {
		t.Fatalf("duplicate category code = %q", dup.Code)
	}
}

func TestCreateProductWithVariantAndSearch(t *testing.T) {
	store, database := newTestStore(t)
	f := seedFixture(t, database)
	ctx := context.Background()

	p, err := store.CreateProduct(ctx, ProductInput{
		CompanyID:    &f.company,
		CategoryID:   &f.frame,
		Name:         " 알루미늄 슬림문틀 ",
		Description:  "Slim aluminium",
		Ruleset:      "slim_frame",
		SpecName:     "110바",
		VariantPrice: int64Ptr(40000),
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.Name != "알루미늄 슬림문틀" || p.Ruleset != "SLIM_FRAME" || p.Category.Code != "FRAME" {
		t.Fatalf("unexpected product %+v", p)
	}

	items, err := store.SearchProducts(ctx, SearchQuery{Keyword: "SLIM", CompanyID: &f.company})
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if len(items) != 1 || len(items[0].Variants) != 1 || items[0].Variants[0].Price != 40000 {
		t.Fatalf("unexpected search result %+v", items)
	}

	if _, err := store.CreateProduct(ctx, ProductInput{CompanyID: &f.company, CategoryID: int64Ptr(999), Name: "x"}); err == nil || err.Error() != MsgCategoryNotFound {
		t.Fatalf("expected category not found, got %v", err)
	}
	if _, err := store.CreateProduct(ctx, ProductInput{CompanyID: &f.company, CategoryID: &f.frame, Name: "x", Ruleset: "TRIANGLE"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown ruleset, got %v", err)
	}
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	store, database := newTestStore(t)
	f := seedFixture(t, database)
	ctx := context.Background()
	variant := mustExec(t, database, `INSERT INTO product_variants (product_id, spec_name, type_name, price) VALUES (?, '110바', '', 45000)`, f.frameProduct)

	if err := store.UpdateProduct(ctx, f.frameProduct, ProductUpdate{Name: strPtr("  "), Description: strPtr(" 발포 "), BasePrice: int64Ptr(1000)}); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	p, err := store.Product(ctx, f.frameProduct)
	if err != nil {
		t.Fatalf("Product: %v", err)
	}
	if p.Name != "PVC 발포문틀" || p.Description != "발포" || p.BasePrice != 1000 {
		t.Fatalf("unexpected product after update %+v", p)
	}

	if err := store.UpdateVariant(ctx, variant, VariantUpdate{Price: int64Ptr(47000)}); err != nil {
		t.Fatalf("UpdateVariant: %v", err)
	}
	v, err := store.Variant(ctx, variant)
	if err != nil || v.Price != 47000 || v.SpecName != "110바" {
		t.Fatalf("Variant = %+v, %v", v, err)
	}

	if err := store.UpdateProduct(ctx, 999, ProductUpdate{}); err == nil || err.Error() != MsgProductNotFound {
		t.Fatalf("expected product not found, got %v", err)
	}
	if err := store.UpdateVariant(ctx, 999, VariantUpdate{}); err == nil || err.Error() != MsgVariantNotFound {
		t.Fatalf("expected variant not found, got %v", err)
	}

	if err := store.DeleteProduct(ctx, f.frameProduct); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if _, err := store.Variant(ctx, variant); !errors.Is(err, ErrNotFound) {
		t.Fatalf("variant should be deleted with its product, got %v", err)
	}
	if err := store.DeleteVariant(ctx, variant); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found deleting a missing variant, got %v", err)
	}
}
