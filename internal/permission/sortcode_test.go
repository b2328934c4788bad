package permission

import "testing"

func TestNextSortCode(t *testing.T) {
	tests := []struct {
		name     string
		parent   string
		siblings []string
		want     string
	}{
		{"первый ребёнок корня", "", nil, "1"},
		{"второй ребёнок корня", "", []string{"1"}, "2"},
		{"первый ребёнок узла 3", "3", nil, "301"},
		{"второй ребёнок узла 3", "3", []string{"301"}, "302"},
		{"максимум числом, а не строкой", "3", []string{"309", "3010", "302"}, "3011"},
		{"первая кнопка меню 102", "102", nil, "10201"},
		{"ведущие нули не сохраняются", "0", []string{"001"}, "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextSortCode(tt.parent, tt.siblings)
			if err != nil {
				t.Fatalf("NextSortCode: %v", err)
			}
			if got != tt.want {
				t.Errorf("хотели %q, получили %q", tt.want, got)
			}
		})
	}
}

func TestNextSortCode_Invalid(t *testing.T) {
	if _, err := NextSortCode("3", []string{"30a"}); err == nil {
		t.Error("ожидалась ошибка для нечислового кода")
	}
}
