// Command seed-db loads a catalog file into the database and optionally
// writes a few demo sales. The catalog file is JSON, gzip-compressed when
// the name ends in .gz, and is decoded as a stream so large catalogs do not
// need to fit in memory.
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/snackbox/admin-api/internal/storage/postgres"
)

type productSeed struct {
	Name        string
	Description string
	Price       decimal.Decimal
	PromoPrice  decimal.NullDecimal
	Stock       int32
	InStock     bool
	Category    string
	Images      []string
}

func main() {
	var (
		databaseURL string
		catalogFile string
		demoSales   bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file (.gz supported)")
	flag.BoolVar(&demoSales, "demo-sales", false, "seed demo sales when the ledger is empty")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, demoSales); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile string, demoSales bool) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCatalog(ctx, pool, catalogFile); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if demoSales {
		if err := seedDemoSales(ctx, pool); err != nil {
			return errors.Wrap(err, "seed demo sales")
		}
	}

	return nil
}

// openCatalog returns a reader over the catalog file, transparently
// decompressing .gz files.
func openCatalog(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	gz, err := pgzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	return struct {
		io.Reader
		io.Closer
	}{gz, f}, nil
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool, path string) error {
	slog.Info("reading catalog file", slog.String("path", path))

	var existing int64
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&existing); err != nil {
		return errors.Wrap(err, "count products")
	}
	seedProducts := existing == 0
	if !seedProducts {
		slog.Info("products already present, seeding categories only", slog.Int64("count", existing))
	}

	r, err := openCatalog(path)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	var (
		categories int
		products   int
	)
	d := jx.Decode(r, 4096)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "categories":
			return d.Arr(func(d *jx.Decoder) error {
				name, err := d.Str()
				if err != nil {
					return errors.Wrap(err, "decode category name")
				}
				if err := upsertCategory(ctx, pool, name); err != nil {
					return err
				}
				categories++
				return nil
			})
		case "products":
			return d.Arr(func(d *jx.Decoder) error {
				p, err := decodeProduct(d)
				if err != nil {
					return err
				}
				if !seedProducts {
					return nil
				}
				if err := insertProduct(ctx, pool, p); err != nil {
					return err
				}
				products++
				return nil
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return errors.Wrap(err, "decode catalog")
	}

	slog.Info("catalog seeded", slog.Int("categories", categories), slog.Int("products", products))
	return nil
}

func decodeProduct(d *jx.Decoder) (*productSeed, error) {
	p := &productSeed{InStock: true}
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			p.Name, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "price":
			p.Price, err = decodeDecimal(d)
		case "promo_price":
			if d.Next() == jx.Null {
				return d.Null()
			}
			var promo decimal.Decimal
			if promo, err = decodeDecimal(d); err == nil {
				p.PromoPrice = decimal.NewNullDecimal(promo)
			}
		case "stock":
			p.Stock, err = d.Int32()
		case "in_stock":
			p.InStock, err = d.Bool()
		case "category":
			p.Category, err = d.Str()
		case "images":
			err = d.Arr(func(d *jx.Decoder) error {
				img, err := d.Str()
				if err != nil {
					return err
				}
				p.Images = append(p.Images, img)
				return nil
			})
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return nil, errors.Wrap(err, "decode product")
	}
	return p, nil
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	num, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, err
	}
	// Num may be a raw JSON number or a quoted string number.
	return decimal.NewFromString(strings.Trim(num.String(), `"`))
}

func upsertCategory(ctx context.Context, pool *pgxpool.Pool, name string) error {
	_, err := pool.Exec(ctx,
		`INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return errors.Wrapf(err, "upsert category %q", name)
	}
	return nil
}

func insertProduct(ctx context.Context, pool *pgxpool.Pool, p *productSeed) error {
	tag, err := pool.Exec(ctx, `INSERT INTO products
		(name, description, price, promo_price, stock, in_stock, category_id, image_urls)
		SELECT $1, $2, $3, $4, $5, $6, c.id, $8
		FROM categories c WHERE c.name = $7`,
		p.Name, p.Description, p.Price, p.PromoPrice, p.Stock, p.InStock, p.Category, p.Images)
	if err != nil {
		return errors.Wrapf(err, "insert product %q", p.Name)
	}
	if tag.RowsAffected() == 0 {
		return errors.Errorf("product %q references unknown category %q", p.Name, p.Category)
	}
	return nil
}

// seedDemoSales writes a small fixed ledger so the dashboard has data to
// show. It is a no-op when sales already exist or the catalog is empty.
func seedDemoSales(ctx context.Context, pool *pgxpool.Pool) error {
	var existing int64
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM sales`).Scan(&existing); err != nil {
		return errors.Wrap(err, "count sales")
	}
	if existing > 0 {
		slog.Info("sales already present, skipping demo sales", slog.Int64("count", existing))
		return nil
	}

	rows, err := pool.Query(ctx, `SELECT id, name, price FROM products ORDER BY created_at LIMIT 3`)
	if err != nil {
		return errors.Wrap(err, "pick demo products")
	}
	defer rows.Close()

	type demoProduct struct {
		id    string
		name  string
		price decimal.Decimal
	}
	var picks []demoProduct
	for rows.Next() {
		var p demoProduct
		if err := rows.Scan(&p.id, &p.name, &p.price); err != nil {
			return errors.Wrap(err, "scan demo product")
		}
		picks = append(picks, p)
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "iterate demo products")
	}
	if len(picks) == 0 {
		slog.Info("no products to build demo sales from")
		return nil
	}

	customers := []string{"Walk-in", "Maria Lopez", "Sam Chen"}
	methods := []string{"cash", "card", "cash"}

	for i, p := range picks {
		qty := int32(i + 1)
		total := p.price.Mul(decimal.NewFromInt(int64(qty)))

		var saleID string
		err := pool.QueryRow(ctx, `INSERT INTO sales (customer_name, payment_method, total_amount)
			VALUES ($1, $2, $3) RETURNING id`,
			customers[i%len(customers)], methods[i%len(methods)], total).Scan(&saleID)
		if err != nil {
			return errors.Wrap(err, "insert demo sale")
		}

		_, err = pool.Exec(ctx, `INSERT INTO sale_items
			(sale_id, product_id, product_name, product_image, quantity, price_at_sale)
			VALUES ($1, $2, $3, '', $4, $5)`,
			saleID, p.id, p.name, qty, p.price)
		if err != nil {
			return errors.Wrap(err, "insert demo sale item")
		}
	}

	slog.Info("demo sales seeded", slog.Int("count", len(picks)))
	return nil
}
