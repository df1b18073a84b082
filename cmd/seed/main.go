package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/ikkim/moda-backend/config"
	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/internal/app/repository"
	"github.com/ikkim/moda-backend/internal/app/service"
	"github.com/ikkim/moda-backend/internal/db"
	"github.com/ikkim/moda-backend/pkg/util"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Catalog sheet columns, one row per variant. Rows sharing a product
// name are merged into one product; product fields come from the first.
const (
	colName = iota
	colCategory
	colBrand
	colPrice
	colDescription
	colImageURL
	colSize
	colColor
	colStock
	catalogColumns
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <catalog.xlsx>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	products, err := readCatalogFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total products to import: %d\n", len(products))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	productService := service.NewProductService(repository.NewProductRepository(db.GetDB()), nil)
	imported, failed := 0, 0
	for _, input := range products {
		if _, err := productService.CreateProduct(input); err != nil {
			fmt.Printf("  skipped %q: %v\n", input.Name, err)
			failed++
			continue
		}
		imported++
	}

	fmt.Println("Import completed!")
	fmt.Printf("  Imported: %d\n", imported)
	fmt.Printf("  Failed:   %d\n", failed)

	email := os.Getenv("SEED_STAFF_EMAIL")
	password := os.Getenv("SEED_STAFF_PASSWORD")
	if email == "" || password == "" {
		fmt.Println("SEED_STAFF_EMAIL/SEED_STAFF_PASSWORD not set, no staff account created.")
		return
	}
	created, err := ensureStaffUser(repository.NewUserRepository(db.GetDB()), email, password)
	if err != nil {
		log.Fatal("Failed to create staff user:", err)
	}
	if created {
		fmt.Printf("Staff account created: %s\n", email)
	} else {
		fmt.Printf("Staff account already exists: %s\n", email)
	}
}

func readCatalogFromXLSX(filePath string) ([]service.ProductInput, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	products, skipped := parseCatalogRows(rows)

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", len(rows)-1)
	fmt.Printf("  Products: %d\n", len(products))
	fmt.Printf("  Skipped rows: %d\n", skipped)

	return products, nil
}

// parseCatalogRows skips the header row and any row missing a required
// value. Category and brand accept either the code or the Spanish label.
func parseCatalogRows(rows [][]string) ([]service.ProductInput, int) {
	var products []service.ProductInput
	index := make(map[string]int)
	skipped := 0

	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < catalogColumns {
			skipped++
			continue
		}

		name := strings.TrimSpace(row[colName])
		size := strings.TrimSpace(row[colSize])
		color := strings.TrimSpace(row[colColor])
		price, errPrice := strconv.ParseInt(strings.TrimSpace(row[colPrice]), 10, 64)
		stock, errStock := strconv.Atoi(strings.TrimSpace(row[colStock]))
		if name == "" || size == "" || color == "" || errPrice != nil || errStock != nil {
			skipped++
			continue
		}

		variant := service.VariantInput{Size: size, Color: color, Stock: stock}
		key := strings.ToLower(name)
		if pos, ok := index[key]; ok {
			products[pos].Variants = append(products[pos].Variants, variant)
			continue
		}

		index[key] = len(products)
		products = append(products, service.ProductInput{
			Name:        name,
			Category:    normalizeCategory(row[colCategory]),
			Brand:       normalizeBrand(row[colBrand]),
			Price:       price,
			Description: strings.TrimSpace(row[colDescription]),
			ImageURL:    strings.TrimSpace(row[colImageURL]),
			Variants:    []service.VariantInput{variant},
		})
	}
	return products, skipped
}

func normalizeCategory(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, c := range model.ProductCategories() {
		if strings.EqualFold(raw, string(c)) || strings.EqualFold(raw, c.Label()) {
			return string(c)
		}
	}
	return strings.ToLower(raw)
}

func normalizeBrand(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, b := range model.ProductBrands() {
		if strings.EqualFold(raw, string(b)) || strings.EqualFold(raw, b.Label()) {
			return string(b)
		}
	}
	return strings.ToLower(raw)
}

// ensureStaffUser creates the back-office account unless the email is
// already registered.
func ensureStaffUser(users repository.UserRepository, email, password string) (bool, error) {
	if _, err := users.FindByEmail(email); err == nil {
		return false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if err := util.CheckPasswordPolicy(password); err != nil {
		return false, err
	}
	hash, err := util.HashPassword(password)
	if err != nil {
		return false, err
	}
	return true, users.Create(&model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Equipo MODA",
		Role:         model.RoleStaff,
	})
}
