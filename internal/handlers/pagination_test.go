package handlers

import "testing"

func TestParsePaginationParams(t *testing.T) {
	tests := []struct {
		name      string
		pageStr   string
		limitStr  string
		wantPage  int64
		wantLimit int64
		wantErr   bool
	}{
		{name: "defaults", wantPage: 1, wantLimit: 20},
		{name: "explicit values", pageStr: "3", limitStr: "5", wantPage: 3, wantLimit: 5},
		{name: "zero page", pageStr: "0", wantErr: true},
		{name: "negative limit", limitStr: "-1", wantErr: true},
		{name: "non numeric", pageStr: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit, err := parsePaginationParams(tt.pageStr, tt.limitStr)
			if tt.wantErr {
				if err == nil {
					t.Fatal("want error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if page != tt.wantPage || limit != tt.wantLimit {
				t.Errorf("got (%d, %d), want (%d, %d)", page, limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestPaginationBlock(t *testing.T) {
	block := paginationBlock(2, 10, 25)

	if block["totalPages"] != int64(3) {
		t.Errorf("totalPages = %v, want 3", block["totalPages"])
	}
	if block["hasNextPage"] != true || block["hasPrevPage"] != true {
		t.Errorf("page 2 of 3 should have both neighbours")
	}

	last := paginationBlock(3, 10, 25)
	if last["hasNextPage"] != false {
		t.Error("last page should not have a next page")
	}
}
