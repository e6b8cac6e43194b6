package repos

import (
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	applog "shopdesk/internal/log"
)

// DemoPassword is the password of every seeded staff account.
const DemoPassword = "Passw0rd!"

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM businesses`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	applog.Info(nil, "seed.demo", map[string]any{"business": "demo"})

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO businesses(id,name,address,phone,email,currency,tax_number) VALUES
	  ('demo','Corner Store','12 Market Road, Pune','+91 20 5550 1234','hello@cornerstore.test','INR','27ABCDE1234F1Z5')`)

	tx.MustExec(`INSERT INTO branches(id,business_id,name,address,phone,is_active) VALUES
	  ('br-main','demo','Main Street','12 Market Road, Pune','+91 20 5550 1234',1),
	  ('br-annex','demo','Station Annex','3 Station Road, Pune','+91 20 5550 9876',1),
	  ('br-closed','demo','Old Depot','Industrial Estate, Pune','',0)`)

	tx.MustExec(`INSERT INTO users(id,business_id,branch_id,email,name,password_hash,role) VALUES
	  ('u-owner','demo',NULL,'owner@shopdesk.test','Owen Owner',?,'OWNER'),
	  ('u-manager','demo','br-main','manager@shopdesk.test','Mina Manager',?,'MANAGER'),
	  ('u-cashier','demo','br-main','cashier@shopdesk.test','Cal Cashier',?,'CASHIER'),
	  ('u-annex','demo','br-annex','annex@shopdesk.test','Ana Annex',?,'CASHIER')`,
		string(hash), string(hash), string(hash), string(hash))

	tx.MustExec(`INSERT INTO products(id,business_id,branch_id,name,sku,category,price_minor,cost_minor,stock_quantity,min_stock_level,is_active) VALUES
	  ('p-tea','demo',NULL,'Masala Tea 250g','TEA-250','Beverages',14500,11000,40,10,1),
	  ('p-coffee','demo',NULL,'Filter Coffee 500g','COF-500','Beverages',32000,26000,12,5,1),
	  ('p-rice','demo','br-main','Basmati Rice 5kg','RIC-5K','Grocery',59900,52000,8,5,1),
	  ('p-soap','demo','br-main','Sandal Soap','SOP-01','Personal Care',4500,3000,3,5,1),
	  ('p-ghee','demo','br-main','Ghee 1L','GHE-1L','Grocery',65000,58000,0,3,1),
	  ('p-pen','demo','br-annex','Gel Pen Blue','PEN-BL','Stationery',1000,600,100,20,1),
	  ('p-biscuit','demo',NULL,'Butter Biscuits','BIS-OLD','Snacks',2000,1500,30,5,0)`)

	return tx.Commit()
}
