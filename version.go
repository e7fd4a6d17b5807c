package wrxengine

const (
	Name     = "WRX_ENGINE"
	Version  = "01.00.01"
	Codename = "Hydrogen"
)

// VersionString returns the name, version and codename on one line.
func VersionString() string {
	return Name + " " + Version + " (" + Codename + ")"
}
