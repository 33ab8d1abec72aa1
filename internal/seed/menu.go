package seed

import "github.com/angelmondragon/warung-pos/internal/settings"

// MenuItem is one menu-board entry with its shorthand price.
type MenuItem struct {
	Name     string
	Price    string
	Category string
}

// DefaultMenu is the stall's menu board.
var DefaultMenu = []MenuItem{
	{"Nasgor Kebuli Sapi", "22K", "Makanan"},
	{"Nasgor Kebuli Katsu", "20K", "Makanan"},
	{"Nasgor Kebuli Ayam", "16K", "Makanan"},
	{"Nasi Mie Goreng Ayam Geprek", "19K", "Makanan"},
	{"Nasi Mie Goreng Ayam Bakar", "19K", "Makanan"},
	{"Nasi Mie Goreng Ayam Goreng", "19K", "Makanan"},
	{"Kentang/Nasi Katsu Salad", "17K", "Makanan"},
	{"Kentang/Nasi Katsu", "15K", "Makanan"},
	{"Kentang Dumpling Keju", "15K", "Makanan"},
	{"Kentang Goreng Saos", "13K", "Makanan"},
	{"Kentang/Nasi Cheese", "15K", "Makanan"},
	{"Kentang/Nasi Cheese Salad", "17K", "Makanan"},
	{"Nasi Ayam Geprek Gobyos + Tempe", "13K", "Makanan"},
	{"Nasi Ayam Penyet Bakar + Tempe", "13K", "Makanan"},
	{"Nasi Ayam Penyet Goreng + Tempe", "13K", "Makanan"},
	{"Nasi Lele Penyet + Tempe", "13K", "Makanan"},
	{"Nasi Ikan Patin Goreng + Tempe", "13K", "Makanan"},
	{"Nasi SFC + Tempe", "13K", "Makanan"},
	{"Nasi Soto Sapi", "18K", "Makanan"},
	{"Nasi Soto Ayam", "13K", "Makanan"},
	{"Nasi Soto Babat", "13K", "Makanan"},

	{"Chocolatos Drink", "7K", "Minuman"},
	{"Jeruk Susu (Es/Hangat)", "7K", "Minuman"},
	{"Jeruk (Es/Hangat)", "5K", "Minuman"},
	{"Teh Susu (Es/Hangat)", "6K", "Minuman"},
	{"Kuku Bima Susu Es", "6K", "Minuman"},
	{"Extra Joss Susu Es", "6K", "Minuman"},
	{"Es Laguna Salsabilla", "7K", "Minuman"},
	{"Hillo (Es/Hangat)", "5K", "Minuman"},
	{"Susu Putih (Es/Hangat)", "5K", "Minuman"},
	{"Susu Coklat (Es/Hangat)", "5K", "Minuman"},
	{"Cappuccino Coffee (Es/Hangat)", "6K", "Minuman"},
	{"Lemon Tea (Es/Hangat)", "5K", "Minuman"},
	{"Orange Squash (Es/Hangat)", "5K", "Minuman"},
	{"Teh Tarik (Es/Hangat)", "6K", "Minuman"},
	{"Teh Leci (Es/Hangat)", "5K", "Minuman"},
	{"Teh Melon (Es/Hangat)", "6K", "Minuman"},
	{"Teh Mangga (Es/Hangat)", "5K", "Minuman"},
	{"Kopi Hitam", "3K", "Minuman"},
	{"Teh Manis (Es/Hangat)", "3K", "Minuman"},
	{"Teh Tawar (Es/Hangat)", "2K", "Minuman"},
	{"Es Batu", "2K", "Minuman"},
	{"Air Mineral 1,5L", "5K", "Minuman"},
	{"Air Mineral 300ml", "3K", "Minuman"},
	{"Aneka Nutrisari (Es/Hangat)", "5K", "Minuman"},

	{"Telor Dadar/Ceplok", "4K", "Tambahan"},
	{"Krupuk Udang", "5K", "Tambahan"},
	{"Peyek", "3K", "Tambahan"},
	{"Tahu/Tempe Goreng", "1K", "Tambahan"},
	{"Mendoan/Bakwan", "1K", "Tambahan"},
	{"Bacem Tahu/Tempe", "1K", "Tambahan"},
	{"Kol/Terong Goreng", "4K", "Tambahan"},
	{"Nasi", "5K", "Tambahan"},
	{"Sambal", "3K", "Tambahan"},
}

// DefaultStoreInfo is the stall's contact card.
var DefaultStoreInfo = settings.StoreInfo{
	OpeningHours:   "07.30 - 20.00",
	ClosedDay:      "Sabtu",
	WhatsAppNumber: "0813-8975-2975",
	Address:        "Jln. Sukabirus Blok F No. 48 RT 06 RW 13, Dayeuhkolot Bandung",
	Promo: []string{
		"Setiap hari Jum'at ada diskon",
		"Menerima pesanan nasi kotak",
		"Gratis es teh manis bagi yang berbuka puasa di warung",
	},
}
