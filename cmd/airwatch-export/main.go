// airwatch-export loads one sensor collection and writes its current status
// to stdout as GeoJSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/airwatchio/airwatch/internal/log"
	"github.com/airwatchio/airwatch/pkg/geojson"
	"github.com/airwatchio/airwatch/pkg/monitor"
)

func main() {
	baseURL := flag.String("base-url", "", "Base URL of the CSV feed")
	baseName := flag.String("base-name", "", "Base file name (files are <base-name>_meta.csv and <base-name>_data.csv)")
	allColumns := flag.Bool("all-columns", false, "Keep all metadata columns instead of the core subset")
	timezone := flag.String("timezone", "", "Trim the time range to whole local days in this IANA timezone")
	dropEmpty := flag.Bool("drop-empty", false, "Drop series with zero valid observations")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if *baseURL == "" || *baseName == "" {
		fmt.Fprintln(os.Stderr, "both -base-url and -base-name are required")
		flag.Usage()
		os.Exit(1)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	opts := monitor.LoadOptions{
		BaseName: *baseName,
		BaseURL:  *baseURL,
		Logger:   log.GetSugaredLogger(),
	}
	if !*allColumns {
		opts.MetaColumns = monitor.CoreMetadataColumns
	}

	m := monitor.NewEmpty()
	if err := m.LoadCustom(context.Background(), opts); err != nil {
		log.Errorf("load failed: %v", err)
		os.Exit(1)
	}

	var err error
	if *dropEmpty {
		if m, err = m.DropEmpty(); err != nil {
			log.Errorf("drop-empty failed: %v", err)
			os.Exit(1)
		}
	}
	if *timezone != "" {
		if m, err = m.TrimDate(*timezone, false); err != nil {
			log.Errorf("trim failed: %v", err)
			os.Exit(1)
		}
	}

	fc, err := geojson.FromMonitor(m)
	if err != nil {
		log.Errorf("rendering GeoJSON failed: %v", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fc); err != nil {
		log.Errorf("encoding GeoJSON failed: %v", err)
		os.Exit(1)
	}
}
