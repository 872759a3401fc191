package InputParameters

import (
	"fmt"
	"sort"
	"time"

	"github.com/ghodss/yaml"
)

// GridParameters select and size the grid a job runs on.
type GridParameters struct {
	Kind   string     `yaml:"Kind"`   // cartesian, curvilinear, annulus, simplex, hexahedral, delaunay or su2
	Dim    int        `yaml:"Dim"`
	Size   [3]int     `yaml:"Size"`   // vertices per axis
	Min    [3]float64 `yaml:"Min"`    // annulus radii are Min[0] and Max[0]
	Max    [3]float64 `yaml:"Max"`
	Blocks int        `yaml:"Blocks"` // curvilinear and annulus blocks
	Warp   float64    `yaml:"Warp"`   // curvilinear interior displacement, fraction of the box
	Points int        `yaml:"Points"` // scattered points for delaunay
	Seed   int64      `yaml:"Seed"`
	File   string     `yaml:"File"`   // su2 mesh
}

// JobParameters describe one extraction.
type JobParameters struct {
	Kind     string       `yaml:"Kind"` // isosurface, slice, streamline or streamsurface
	Field    string       `yaml:"Field"`
	Vector   []string     `yaml:"Vector"`
	Color    string       `yaml:"Color"`
	Isovalue *float64     `yaml:"Isovalue"` // seeded isosurfaces default to the value at the seed
	Global   bool         `yaml:"Global"`
	Smooth   bool         `yaml:"Smooth"`
	Seed     [3]float64   `yaml:"Seed"`
	Normal   [3]float64   `yaml:"Normal"`
	Rake     [][3]float64 `yaml:"Rake"`
	Backward bool         `yaml:"Backward"`
	MaxSteps int          `yaml:"MaxSteps"`

	// Budget applied to every Continue call
	MaxTime string `yaml:"MaxTime"` // a duration such as 50ms
	MaxSize int    `yaml:"MaxSize"`
	Output  string `yaml:"Output"` // .vtk for legacy VTK, anything else for the binary fragment stream
}

// MaxDuration parses MaxTime, zero when unset.
func (job *JobParameters) MaxDuration() (time.Duration, error) {
	if job.MaxTime == "" {
		return 0, nil
	}
	return time.ParseDuration(job.MaxTime)
}

// Parameters obtained from the YAML input file
type InputParameters struct {
	Title  string            `yaml:"Title"`
	Grid   GridParameters    `yaml:"Grid"`
	Fields map[string]string `yaml:"Fields"` // expressions over x, y and z
	Jobs   []JobParameters   `yaml:"Jobs"`
}

func (ip *InputParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, ip); err != nil {
		return err
	}
	return ip.Validate()
}

func (ip *InputParameters) Validate() error {
	g := &ip.Grid
	if g.Kind == "" {
		return fmt.Errorf("missing Grid.Kind")
	}
	if g.Kind != "su2" && (g.Dim < 2 || g.Dim > 3) {
		return fmt.Errorf("grid dimension %d not in [2,3]", g.Dim)
	}
	for i, job := range ip.Jobs {
		switch job.Kind {
		case "isosurface":
			if _, ok := ip.Fields[job.Field]; !ok {
				return fmt.Errorf("job %d: unknown field %q", i, job.Field)
			}
		case "slice":
			if job.Normal == [3]float64{} {
				return fmt.Errorf("job %d: slice needs a Normal", i)
			}
		case "streamline", "streamsurface":
			if len(job.Vector) < 2 {
				return fmt.Errorf("job %d: %s needs a Vector of 2 or 3 fields", i, job.Kind)
			}
			for _, name := range job.Vector {
				if _, ok := ip.Fields[name]; !ok {
					return fmt.Errorf("job %d: unknown field %q", i, name)
				}
			}
			if job.Kind == "streamsurface" && len(job.Rake) < 2 {
				return fmt.Errorf("job %d: streamsurface needs a Rake of at least 2 points", i)
			}
		default:
			return fmt.Errorf("job %d: unknown kind %q", i, job.Kind)
		}
		if _, err := job.MaxDuration(); err != nil {
			return fmt.Errorf("job %d: %w", i, err)
		}
		if job.Color != "" {
			if _, ok := ip.Fields[job.Color]; !ok {
				return fmt.Errorf("job %d: unknown color field %q", i, job.Color)
			}
		}
	}
	return nil
}

func (ip *InputParameters) Print() {
	g := &ip.Grid
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t\t= Grid Kind\n", g.Kind)
	fmt.Printf("[%d]\t\t\t= Dimension\n", g.Dim)
	if g.File != "" {
		fmt.Printf("[%s]\t= Grid File\n", g.File)
	} else {
		fmt.Printf("%v\t\t= Size\n", g.Size[:g.Dim])
		fmt.Printf("%v - %v\t= Box\n", g.Min[:g.Dim], g.Max[:g.Dim])
	}
	keys := make([]string, len(ip.Fields))
	i := 0
	for k := range ip.Fields {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("Fields[%s] = %s\n", key, ip.Fields[key])
	}
	for i, job := range ip.Jobs {
		fmt.Printf("Jobs[%d] = %s\n", i, job.Kind)
	}
}
