package main

import (
	"archive/zip"
	"cmp"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/healthviz/patientdash/consts"
	"github.com/healthviz/patientdash/db"
	"github.com/healthviz/patientdash/records"
)

func main() {
	srcPath := flag.String("src", "", "JSON file, zip archive, or folder of them holding patient record arrays (required)")
	dbPath := flag.String("db", "", "Path to patients.db (default: $DATA_FOLDER/patients.db or ./patients.db)")
	flag.Parse()

	if *srcPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	dbFile := *dbPath
	if dbFile == "" {
		dataFolder := cmp.Or(os.Getenv("DATA_FOLDER"), ".")
		dbFile = filepath.Join(dataFolder, consts.DatabaseFile)
	}

	if err := run(*srcPath, dbFile); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(srcPath, dbFile string) error {
	dbConn, err := db.OpenDB(dbFile)
	if err != nil {
		return fmt.Errorf("opening database %s: %w", dbFile, err)
	}
	defer func() { _ = dbConn.Close() }()

	files, err := findSources(srcPath)
	if err != nil {
		return fmt.Errorf("finding source files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no .json or .zip files found in %s", srcPath)
	}
	log.Printf("Found %d source files", len(files))

	var total int
	for i, f := range files {
		log.Printf("Processing file %d of %d: %s", i+1, len(files), filepath.Base(f))
		imported, err := importFile(dbConn, f)
		if err != nil {
			log.Printf("Warning: error processing %s: %v", f, err)
			continue
		}
		log.Printf("  Imported %d records", imported)
		total += imported
	}
	log.Printf("Total records imported: %d", total)
	return nil
}

func isSource(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".zip")
}

func findSources(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isSource(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}

	// Sort by name so imports are reproducible
	sort.Strings(files)
	return files, nil
}

func importFile(dbConn *sql.DB, path string) (int, error) {
	if strings.HasSuffix(strings.ToLower(path), ".zip") {
		return importZip(dbConn, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return importRecords(dbConn, f)
}

func importZip(dbConn *sql.DB, zipPath string) (int, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	var total int
	for _, f := range r.File {
		// Skip macOS metadata files
		if strings.HasPrefix(f.Name, "__MACOSX") || !strings.HasSuffix(strings.ToLower(f.Name), ".json") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return total, err
		}
		n, err := importRecords(dbConn, rc)
		_ = rc.Close()
		if err != nil {
			return total, fmt.Errorf("%s: %w", f.Name, err)
		}
		total += n
	}
	return total, nil
}

func importRecords(dbConn *sql.DB, r io.Reader) (int, error) {
	rs, err := records.Decode(r)
	if err != nil {
		return 0, err
	}
	if err := db.SaveRecords(dbConn, rs, time.Now()); err != nil {
		return 0, err
	}
	return len(rs), nil
}
