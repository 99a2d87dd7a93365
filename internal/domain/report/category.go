package report

// Category is the crime type of a report.
type Category string

// Categories lists the supported crime types in display order.
var Categories = []Category{
	"Homicide",
	"Manslaughter",
	"Assault",
	"Domestic Violence",
	"Kidnapping",
	"Human Trafficking",
	"Rape",
	"Sexual Assault",
	"Child Abuse",
	"Theft",
	"Burglary",
	"Robbery",
	"Vandalism",
	"Arson",
	"Bribery",
	"Counterfeiting",
	"Insider Trading",
	"Drug Possession",
	"Drug Trafficking",
	"DUI (Driving Under Influence)",
	"Public Intoxication",
	"Illegal Drug Manufacturing",
	"Gang Activity",
	"Illegal Gambling",
	"Smuggling",
	"Extortion",
	"Contract Killing",
	"Terrorism",
	"Corruption",
	"Treason",
	"Rioting",
	"Election Fraud",
	"Obstruction of Justice",
	"Illegal Wildlife Trade",
	"Pollution",
	"Poaching",
	"Deforestation",
	"Illegal Waste Disposal",
	"Indecent Exposure",
	"Prostitution",
	"Hate Speech",
	"Obscene Publications",
}

var categories = func() map[Category]struct{} {
	m := make(map[Category]struct{}, len(Categories))
	for _, c := range Categories {
		m[c] = struct{}{}
	}
	return m
}()

// IsValid checks if the category is a known crime type.
func (c Category) IsValid() bool {
	_, ok := categories[c]
	return ok
}
