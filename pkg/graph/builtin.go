package graph

// BuiltinPackage holds the profiles every compiled model can use.
const BuiltinPackage = "meta::pure::profiles"

// BuiltinProfiles returns fresh copies of the standard profiles:
// doc (tags doc, todo) and temporal (stereotypes businesstemporal,
// processingtemporal, bitemporal).
func BuiltinProfiles() []*Profile {
	doc := NewProfile(BuiltinPackage+PathSeparator+"doc", nil)
	doc.AddTag("doc", nil)
	doc.AddTag("todo", nil)

	temporal := NewProfile(BuiltinPackage+PathSeparator+"temporal", nil)
	temporal.AddStereotype("businesstemporal", nil)
	temporal.AddStereotype("processingtemporal", nil)
	temporal.AddStereotype("bitemporal", nil)

	return []*Profile{doc, temporal}
}
