package seed

const baseSetOption = "기본 세트"

type demoCategory struct {
	code      string
	name      string
	parent    string
	sortOrder int
}

type demoVariant struct {
	spec     string
	typeName string
	price    int64
}

type demoMatrixRow struct {
	maxWidth int
	price    int64
}

type demoProduct struct {
	category    string
	name        string
	description string
	size        string
	basePrice   int64
	variants    []demoVariant
	matrix      []demoMatrixRow
}

type demoOption struct {
	category string
	name     string
	addPrice int64
}

type demoColor struct {
	name string
	code string
	cost float64
}

// Parents are listed before their children.
var demoCategories = []demoCategory{
	{code: "DOOR", name: "도어", sortOrder: 1},
	{code: "DOOR_ABS", name: "ABS 도어", parent: "DOOR", sortOrder: 1},
	{code: "WINDOW", name: "목창호", sortOrder: 2},
	{code: "WINDOW_GANSAL", name: "간살 목창호", parent: "WINDOW", sortOrder: 1},
	{code: "FRAME", name: "문틀", sortOrder: 3},
	{code: "MOLDING", name: "몰딩", sortOrder: 4},
	{code: "FILM", name: "필름", sortOrder: 5},
	{code: "INTERLOCK", name: "3연동 중문", sortOrder: 6},
	{code: "HARDWARE", name: "하드웨어", sortOrder: 7},
	{code: "WOOD_LUMBER", name: "목재 각재", sortOrder: 8},
}

var demoProducts = []demoProduct{
	{category: "DOOR_ABS", name: "ABS 도어 베이직", basePrice: 150000},
	{category: "DOOR_ABS", name: "ABS 도어 민자", basePrice: 165000},
	{category: "WINDOW", name: "일반 목창호", basePrice: 120000},
	{
		category: "WINDOW_GANSAL",
		name:     "간살 미닫이",
		variants: []demoVariant{{typeName: "미닫이"}},
		matrix:   []demoMatrixRow{{maxWidth: 700, price: 150000}, {maxWidth: 1100, price: 180000}},
	},
	{
		category: "WINDOW_GANSAL",
		name:     "간살 여닫이",
		variants: []demoVariant{{typeName: "여닫이"}},
		matrix:   []demoMatrixRow{{maxWidth: 1200, price: 170000}},
	},
	{
		category: "FRAME",
		name:     "알루미늄 슬림문틀",
		variants: []demoVariant{
			{spec: "110바", price: 40000},
			{spec: "155바", price: 48000},
			{spec: "230바", price: 62000},
		},
	},
	{category: "FRAME", name: "PVC 발포문틀", variants: []demoVariant{{spec: "110바", price: 25000}}},
	{category: "FRAME", name: "목재문틀", variants: []demoVariant{{spec: "110바", price: 30000}}},
	{category: "INTERLOCK", name: "목재 3연동 중문", variants: []demoVariant{{spec: "표준", price: 890000}}},
	{category: "HARDWARE", name: "디지털 도어락", basePrice: 90000},
	{category: "WOOD_LUMBER", name: "라왕 각재", size: "30x30x3600", basePrice: 12000},
}

var demoOptions = []demoOption{
	{category: "DOOR", name: "손잡이", addPrice: 5000},
	{category: "DOOR", name: "도어 스토퍼", addPrice: 8000},
	{category: "DOOR", name: "디자인 포인트 A", addPrice: 20000},
	{category: "WINDOW", name: "높이 2101 이상", addPrice: 10000},
	{category: "WINDOW", name: "방음재", addPrice: 15000},
	{category: "FRAME", name: "문틀 보강", addPrice: 7000},
}

var demoColors = []demoColor{
	{name: "화이트", code: "#FFFFFF"},
	{name: "월넛", code: "#5C4033", cost: 0.1},
	{name: "오크", code: "#C19A6B", cost: 0.05},
}
