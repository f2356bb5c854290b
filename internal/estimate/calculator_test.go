package estimate

import (
	"context"
	"testing"

	"github.com/DongSeo/platform/internal/apperr"
	"github.com/DongSeo/platform/internal/catalog"
)

func product(name, code, parent string, base int64) catalog.Product {
	p := catalog.Product{Name: name, BasePrice: base, Category: catalog.CategoryRef{Code: code}}
	if parent != "" {
		p.Parent = &catalog.CategoryRef{Code: parent}
	}
	return p
}

func TestRegistrySelect(t *testing.T) {
	registry := NewRegistry(nil)

	cases := []struct {
		name    string
		product catalog.Product
		want    string
	}{
		{"gansal window under parent", product("간살 미닫이", "WINDOW_GANSAL", "WINDOW", 0), "matrix"},
		{"gansal window with price", product("간살 여닫이", "WINDOW", "", 99000), "matrix"},
		{"priced window", product("일반 목창호", "WINDOW", "", 120000), "basic"},
		{"unpriced window", product("일반 목창호", "WINDOW", "", 0), "basic"},
		{"wood interlock", product("목재 3연동 중문", "INTERLOCK", "", 0), "variant"},
		{"aluminium interlock", product("알루미늄 3연동 중문", "INTERLOCK", "", 0), "matrix"},
		{"door prefix", product("ABS 도어", "DOOR_ABS", "", 150000), "basic"},
		{"hardware", product("경첩", "EASY_HINGE", "", 3000), "basic"},
		{"parent code fallback", product("일반 문틀", "FRAME_BASIC", "FRAME", 0), "variant"},
		{"molding", product("걸레받이", "MOLDING", "", 0), "variant"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calc, err := registry.Select(tc.product)
			if err != nil {
				t.Fatalf("Select: %v", err)
			}
			if calc.Name() != tc.want {
				t.Fatalf("Select = %s, want %s", calc.Name(), tc.want)
			}
		})
	}

	if _, err := registry.Select(product("도어락", "LOCK", "", 1000)); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("unsupported code error = %v", err)
	}
}

func TestBasicCalculatorRequiresBasePrice(t *testing.T) {
	_, err := BasicCalculator{}.BasePrice(context.Background(), product("도어", "DOOR", "", 0), Selection{})
	if err == nil || err.Error() != msgNoBasePrice {
		t.Fatalf("error = %v", err)
	}
}

func TestWoodFrameAreaPrice(t *testing.T) {
	cases := []struct {
		width, height int
		price, want   int64
	}{
		{900, 2100, 30000, 63000},
		{1000, 950, 30000, 31667},
		{450, 1000, 9000, 4500},
	}
	for _, tc := range cases {
		if got := WoodFrameAreaPrice(tc.width, tc.height, tc.price); got != tc.want {
			t.Fatalf("WoodFrameAreaPrice(%d, %d, %d) = %d, want %d", tc.width, tc.height, tc.price, got, tc.want)
		}
	}
}
