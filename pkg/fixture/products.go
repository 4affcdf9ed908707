package fixture

// catalog mirrors the products shipped in the sample app, in list order.
var catalog = []Product{
	{ID: "1", Name: "Sauce Labs Backpack", Price: "$29.99", Description: "A stylish backpack with convenient side pocket."},
	{ID: "2", Name: "Sauce Labs Bike Light", Price: "$9.99", Description: "Water-resistant with 3 lighting modes."},
	{ID: "3", Name: "Sauce Labs Bolt T-Shirt", Price: "$15.99", Description: "Get your testing superhero on in this organic cotton bolt shirt."},
	{ID: "4", Name: "Sauce Labs Fleece Jacket", Price: "$49.99", Description: "Midweight quarter-zip fleece jacket in multiple colors."},
	{ID: "5", Name: "Sauce Labs Onesie", Price: "$7.99", Description: "Rib snap infant onesie for the junior automation engineer."},
	{ID: "6", Name: "Test.allTheThings() T-Shirt", Price: "$15.99", Description: "Super-soft ringspun combed cotton shirt with logo."},
}

// Products returns a copy of the catalog.
func Products() []Product {
	out := make([]Product, len(catalog))
	copy(out, catalog)
	return out
}

// ProductByID looks a product up by id.
func ProductByID(id string) (Product, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// ProductByName looks a product up by display name.
func ProductByName(name string) (Product, bool) {
	for _, p := range catalog {
		if p.Name == name {
			return p, true
		}
	}
	return Product{}, false
}

// mustProduct is for ids known to be in the catalog.
func mustProduct(id string) Product {
	p, ok := ProductByID(id)
	if !ok {
		panic("fixture: unknown product id " + id)
	}
	return p
}
