package localstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/client/models"
	"github.com/shopspring/decimal"
)

var (
	recetteDescriptions = []string{
		"Vente de marchandises", "Encaissement client", "Vente comptoir", "Vente en gros",
		"Paiement facture client", "Vente au détail", "Commande spéciale", "Vente produits frais",
		"Encaissement chèque", "Vente exportation",
	}
	depenseDescriptions = []string{
		"Achat de stock", "Loyer mensuel", "Facture électricité", "Salaires employés",
		"Fournitures bureau", "Frais transport", "Entretien matériel", "Assurance magasin",
		"Frais bancaires", "Achat équipement",
	}
	exporters = []string{
		"Exportateur ABC", "Exportateur DEF", "Exportateur GHI", "Exportateur JKL",
		"Exportateur MNO", "Client Premium SA", "Commerce Plus", "Distribution Express",
		"Négoce International", "Export Direct",
	}
	fournisseurs = []string{
		"Fournisseur XYZ", "Grossiste Central", "Import Global", "Fournitures Pro",
		"Stock Express", "Matériaux Plus", "Distribution SA", "CIE Électricité",
		"Propriétaire Immeuble", "Personnel Magasin",
	}
	firstNames = []string{
		"Jean", "Marie", "Pierre", "Sophie", "Paul", "Claire", "Marc", "Anne", "Luc", "Julie",
		"Thomas", "Emma", "Nicolas", "Sarah", "David", "Laura", "François", "Camille", "Antoine", "Léa",
	}
	lastNames = []string{
		"Dupont", "Martin", "Bernard", "Petit", "Robert", "Richard", "Durand", "Leroy",
		"Moreau", "Simon", "Laurent", "Michel", "Garcia", "Thomas", "Roux",
	}
)

func seedCategories() []models.Category {
	return []models.Category{
		{ID: 1, Name: "Ventes", Type: models.CategoryRecette, Color: "#10B981", Icon: "ShoppingBag"},
		{ID: 2, Name: "Services", Type: models.CategoryRecette, Color: "#0B177C", Icon: "Briefcase"},
		{ID: 3, Name: "Encaissements", Type: models.CategoryRecette, Color: "#06B6D4", Icon: "Wallet"},
		{ID: 4, Name: "Fournitures", Type: models.CategoryDepense, Color: "#F59E0B", Icon: "Package"},
		{ID: 5, Name: "Loyer", Type: models.CategoryDepense, Color: "#EF4444", Icon: "Home"},
		{ID: 6, Name: "Salaires", Type: models.CategoryDepense, Color: "#8B5CF6", Icon: "Users"},
		{ID: 7, Name: "Utilities", Type: models.CategoryDepense, Color: "#EC4899", Icon: "Zap"},
		{ID: 8, Name: "Transport", Type: models.CategoryDepense, Color: "#F97316", Icon: "Truck"},
		{ID: 9, Name: "Maintenance", Type: models.CategoryDepense, Color: "#6366F1", Icon: "Wrench"},
		{ID: 10, Name: "Divers", Type: models.CategoryBoth, Color: "#64748B", Icon: "MoreHorizontal"},
	}
}

func pick[T any](s *Store, items []T) T {
	return items[s.rng.IntN(len(items))]
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func (s *Store) seedUsers() []models.User {
	users := []models.User{
		{ID: 1, Email: "admin@cashtrack.com", Name: "Admin User", Role: models.RoleAdmin, Status: models.StatusActive, CreatedAt: day(2025, 1, 1)},
		{ID: 2, Email: "manager@cashtrack.com", Name: "Manager User", Role: models.RoleAdmin, Status: models.StatusActive, CreatedAt: day(2025, 1, 5)},
		{ID: 3, Email: "user@cashtrack.com", Name: "Regular User", Role: models.RoleUser, Status: models.StatusActive, CreatedAt: day(2025, 1, 10)},
	}

	roles := []models.Role{models.RoleUser, models.RoleUser, models.RoleUser, models.RoleAdmin}
	statuses := []models.UserStatus{models.StatusActive, models.StatusActive, models.StatusActive, models.StatusInactive}
	today := s.now()
	for i := 4; i <= seedUsers; i++ {
		first, last := pick(s, firstNames), pick(s, lastNames)
		created := today.AddDate(0, 0, -s.rng.IntN(60)).Truncate(24 * time.Hour)
		users = append(users, models.User{
			ID:        models.ID(i),
			Email:     fmt.Sprintf("%s.%s%d@cashtrack.com", strings.ToLower(first), strings.ToLower(last), i),
			Name:      first + " " + last,
			Role:      pick(s, roles),
			Status:    pick(s, statuses),
			CreatedAt: &created,
		})
	}
	return users
}

// seedTransactions generates one transaction per day over the last
// seedTransactions days. Expense amounts are stored negative.
func (s *Store) seedTransactions() []models.Transaction {
	var recetteCats, depenseCats []models.Category
	for _, c := range s.categories {
		if c.Type.Accepts(models.Recette) {
			recetteCats = append(recetteCats, c)
		}
		if c.Type.Accepts(models.Depense) {
			depenseCats = append(depenseCats, c)
		}
	}
	authors := s.users[:3]

	now := s.now()
	txns := make([]models.Transaction, 0, seedTransactions)
	for i := 0; i < seedTransactions; i++ {
		d := now.AddDate(0, 0, -i)
		isRecette := s.rng.Float64() > 0.45

		tx := models.Transaction{
			ID:        models.ID(i + 1),
			CreatedAt: time.Date(d.Year(), d.Month(), d.Day(), 8+s.rng.IntN(10), s.rng.IntN(60), 0, 0, now.Location()),
		}
		author := pick(s, authors)
		tx.CreatedBy = &author

		var cat models.Category
		if isRecette {
			tx.Type = models.Recette
			tx.Description = pick(s, recetteDescriptions)
			tx.Amount = decimal.NewFromInt(int64(s.rng.IntN(2_000_000) + 100_000))
			tx.ExporterFournisseur = pick(s, exporters)
			tx.Ref = fmt.Sprintf("VTE-%s-%03d", d.Format("20060102"), i+1)
			cat = pick(s, recetteCats)
		} else {
			tx.Type = models.Depense
			tx.Description = pick(s, depenseDescriptions)
			tx.Amount = decimal.NewFromInt(-int64(s.rng.IntN(800_000) + 50_000))
			tx.ExporterFournisseur = pick(s, fournisseurs)
			tx.Ref = fmt.Sprintf("DEP-%s-%03d", d.Format("20060102"), i+1)
			cat = pick(s, depenseCats)
		}
		tx.Description = fmt.Sprintf("%s - Réf. %d", tx.Description, i+1)
		tx.Category = &cat
		txns = append(txns, tx)
	}
	return txns
}
