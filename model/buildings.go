package model

// BuildingKey identifies a building independent of the page's display language.
type BuildingKey string

const (
	MetalMine            BuildingKey = "metal_mine"
	CrystalMine          BuildingKey = "crystal_mine"
	DeuteriumSynthesizer BuildingKey = "deuterium_synthesizer"
	SolarPlant           BuildingKey = "solar_plant"
	RoboticsFactory      BuildingKey = "robotics_factory"
	ResearchLab          BuildingKey = "research_lab"
	Shipyard             BuildingKey = "shipyard"
)

// BuildingNames holds the labels a building may carry on the page, German
// server first.
var BuildingNames = map[BuildingKey][]string{
	MetalMine:            {"Metallmine", "Metal Mine"},
	CrystalMine:          {"Kristallmine", "Crystal Mine"},
	DeuteriumSynthesizer: {"Deuteriumsynthetisierer", "Deuterium Synthesizer"},
	SolarPlant:           {"Solarkraftwerk", "Solar Plant"},
	RoboticsFactory:      {"Roboterfabrik", "Robotics Factory"},
	ResearchLab:          {"Forschungslabor", "Research Lab"},
	Shipyard:             {"Raumschiffwerft", "Shipyard"},
}
