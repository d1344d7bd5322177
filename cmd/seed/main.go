package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/shopsmith/storefront-backend/config"
	"github.com/shopsmith/storefront-backend/internal/app/model"
	"github.com/shopsmith/storefront-backend/internal/app/repository"
	"github.com/shopsmith/storefront-backend/internal/db"
	"github.com/xuri/excelize/v2"
)

// Expected worksheet columns, one product per row after the header:
// SKU | Name | Brand | Price | Stock | Category Path | Image File (optional)
const seedLanguageTag = "en_US"

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
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

	productRepo := repository.NewProductRepository(db.GetDB())

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	products, err := readProductsFromXLSX(filePath)
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

	if err := productRepo.CreateBatch(products); err != nil {
		log.Fatal("Failed to import products:", err)
	}

	fmt.Printf("Successfully imported %d products.\n", len(products))
}

func readProductsFromXLSX(filePath string) ([]model.Product, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %q has no data rows", sheet)
	}

	baseDir := filepath.Dir(filePath)
	var products []model.Product
	for i, row := range rows[1:] {
		rowNum := i + 2
		if len(row) == 0 || strings.TrimSpace(cell(row, 0)) == "" {
			continue
		}

		product, err := parseProductRow(row, baseDir)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		products = append(products, product)
	}
	return products, nil
}

func parseProductRow(row []string, baseDir string) (model.Product, error) {
	sku := strings.TrimSpace(cell(row, 0))
	name := strings.TrimSpace(cell(row, 1))
	brand := strings.TrimSpace(cell(row, 2))
	priceText := strings.TrimSpace(cell(row, 3))
	stockText := strings.TrimSpace(cell(row, 4))
	categoryPath := strings.TrimSpace(cell(row, 5))
	imageFile := strings.TrimSpace(cell(row, 6))

	if name == "" {
		return model.Product{}, fmt.Errorf("missing name for SKU %s", sku)
	}

	price, err := decimal.NewFromString(priceText)
	if err != nil {
		return model.Product{}, fmt.Errorf("invalid price %q: %w", priceText, err)
	}
	if price.IsNegative() {
		return model.Product{}, fmt.Errorf("negative price %q", priceText)
	}

	stock := 0
	if stockText != "" {
		stock, err = strconv.Atoi(stockText)
		if err != nil || stock < 0 {
			return model.Product{}, fmt.Errorf("invalid stock %q", stockText)
		}
	}

	product := model.Product{
		SKU:           sku,
		Price:         price,
		StockQuantity: stock,
		CategoryPath:  categoryPath,
		Names:         []model.ProductName{{LanguageTag: seedLanguageTag, Value: name}},
	}
	if brand != "" {
		product.Brands = []model.ProductBrand{{LanguageTag: seedLanguageTag, Value: brand}}
	}

	if imageFile != "" {
		image, err := os.ReadFile(filepath.Join(baseDir, imageFile))
		if err != nil {
			return model.Product{}, fmt.Errorf("read image %q: %w", imageFile, err)
		}
		product.MainImage = image
	}

	return product, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}
