package menu

import "github.com/shopspring/decimal"

const placeholderImage = "https://placehold.co/300x200.png"

var defaultCategories = []Category{
	{ID: "appetizers", Name: "Appetizers"},
	{ID: "main-courses", Name: "Main Courses"},
	{ID: "desserts", Name: "Desserts"},
	{ID: "beverages", Name: "Beverages"},
}

var defaultItems = []Item{
	{ID: "1", Name: "Bruschetta", Price: price("8.50"), CategoryID: "appetizers", Hint: "bruschetta food"},
	{ID: "2", Name: "Caprese Salad", Price: price("10.00"), CategoryID: "appetizers", Hint: "caprese salad"},
	{ID: "3", Name: "Garlic Bread", Price: price("6.00"), CategoryID: "appetizers", Hint: "garlic bread"},
	{ID: "4", Name: "Spaghetti Carbonara", Price: price("15.00"), CategoryID: "main-courses", Hint: "spaghetti carbonara"},
	{ID: "5", Name: "Margherita Pizza", Price: price("14.00"), CategoryID: "main-courses", Hint: "pizza food"},
	{ID: "6", Name: "Grilled Salmon", Price: price("22.00"), CategoryID: "main-courses", Hint: "grilled salmon"},
	{ID: "7", Name: "Chicken Parmesan", Price: price("18.00"), CategoryID: "main-courses", Hint: "chicken parmesan"},
	{ID: "8", Name: "Lasagna", Price: price("16.50"), CategoryID: "main-courses", Hint: "lasagna food"},
	{ID: "9", Name: "Tiramisu", Price: price("9.00"), CategoryID: "desserts", Hint: "tiramisu dessert"},
	{ID: "10", Name: "Cheesecake", Price: price("8.00"), CategoryID: "desserts", Hint: "cheesecake dessert"},
	{ID: "11", Name: "Chocolate Lava Cake", Price: price("9.50"), CategoryID: "desserts", Hint: "chocolate cake"},
	{ID: "12", Name: "Mineral Water", Price: price("3.00"), CategoryID: "beverages", Hint: "water bottle"},
	{ID: "13", Name: "Orange Juice", Price: price("4.50"), CategoryID: "beverages", Hint: "orange juice"},
	{ID: "14", Name: "Espresso", Price: price("3.50"), CategoryID: "beverages", Hint: "espresso coffee"},
	{ID: "15", Name: "House Wine (Red)", Price: price("7.00"), CategoryID: "beverages", Hint: "red wine"},
}

// Default returns the house menu.
func Default() *Catalog {
	items := make([]Item, len(defaultItems))
	for i, it := range defaultItems {
		it.Image = placeholderImage
		items[i] = it
	}
	c, err := NewCatalog(defaultCategories, items)
	if err != nil {
		panic(err)
	}
	return c
}

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}
