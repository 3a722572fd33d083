// Command seed onboards a venue from a YAML file.
//
//	go run ./cmd/seed -file venues/spice-route.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/database"
	"github.com/iliyamo/table-reservation/internal/repository"
	"github.com/iliyamo/table-reservation/internal/seed"
)

func main() {
	_ = godotenv.Load()

	path := flag.String("file", "", "venue YAML file")
	dryRun := flag.Bool("dry-run", false, "validate only")
	flag.Parse()
	if *path == "" {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatal(err)
	}
	plan, err := seed.Parse(f)
	f.Close()
	if err != nil {
		log.Fatalf("%s:\n%v", *path, err)
	}
	tables := 0
	for _, a := range plan.Areas {
		tables += len(a.Tables)
	}
	fmt.Printf("%s: %d areas, %d tables, %d service windows, %d menu items\n",
		plan.Venue.Name, len(plan.Areas), tables, len(plan.Windows), len(plan.Menu))
	if *dryRun {
		return
	}

	db, err := database.Open(config.Load())
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	venues := repository.NewVenueRepo(db)
	id, err := venues.Import(ctx, plan)
	if err != nil {
		log.Fatalf("import: %v", err)
	}
	areas, err := venues.DiningAreas(ctx, id)
	if err != nil {
		log.Fatalf("load dining areas: %v", err)
	}
	fmt.Printf("created venue %d with dining areas:", id)
	for _, a := range areas {
		fmt.Printf(" %s", a.Name)
	}
	fmt.Println()
}
