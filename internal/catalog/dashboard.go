// file: internal/catalog/dashboard.go
// version: 1.0.0
// guid: c8c17ac3-ac91-4d38-b37b-a51cc100b7ba

package catalog

import (
	"math"
	"sort"
	"time"

	"github.com/jdfalk/cliqbook/internal/cache"
	"github.com/jdfalk/cliqbook/internal/models"
)

// PremiumMonthlyPrice is the assumed monthly price of a premium membership.
const PremiumMonthlyPrice = 9.99

// CategoryCount is one bar of the books-per-category chart.
type CategoryCount struct {
	Category string `json:"category"`
	Books    int    `json:"books"`
}

// DashboardStats is the admin dashboard snapshot.
type DashboardStats struct {
	TotalBooks      int                    `json:"totalBooks"`
	TotalUsers      int                    `json:"totalUsers"`
	PremiumMembers  int                    `json:"premiumMembers"`
	FreeMembers     int                    `json:"freeMembers"`
	TotalCategories int                    `json:"totalCategories"`
	BooksByCategory []CategoryCount        `json:"booksByCategory"`
	BooksByAccess   map[string]int         `json:"booksByAccess"`
	RecentActivity  []models.ActivityEntry `json:"recentActivity"`
	GeneratedAt     time.Time              `json:"generatedAt"`
}

// MembershipStats is the admin membership page snapshot.
type MembershipStats struct {
	PremiumCount int           `json:"premiumCount"`
	MRR          float64       `json:"mrr"`
	ARR          float64       `json:"arr"`
	Members      []models.User `json:"members"`
}

// Dashboard derives admin statistics from the live collections. Results are
// cached until any source collection changes.
type Dashboard struct {
	books      *Books
	users      *Users
	categories *Categories
	activity   *ActivityLog
	now        func() time.Time

	stats      *cache.Cache[DashboardStats]
	membership *cache.Cache[MembershipStats]
}

// NewDashboard creates a dashboard over the given services.
func NewDashboard(books *Books, users *Users, categories *Categories, activity *ActivityLog) *Dashboard {
	return &Dashboard{
		books:      books,
		users:      users,
		categories: categories,
		activity:   activity,
		now:        time.Now,
		stats:      cache.New[DashboardStats](time.Minute),
		membership: cache.New[MembershipStats](time.Minute),
	}
}

func (d *Dashboard) version() uint64 {
	return d.books.Version() + d.users.Version() + d.activity.Version() + d.categories.Version()
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// MonthlyRevenue returns premium × 9.99, rounded to cents.
func MonthlyRevenue(premium int) float64 {
	return roundCents(float64(premium) * PremiumMonthlyPrice)
}

// AnnualRevenue returns twelve months of MonthlyRevenue, rounded to cents.
func AnnualRevenue(premium int) float64 {
	return roundCents(float64(premium) * PremiumMonthlyPrice * 12)
}

// Stats returns the dashboard snapshot.
func (d *Dashboard) Stats() DashboardStats {
	stats, _ := d.stats.GetOrLoad("dashboard", d.version(), func() (DashboardStats, error) {
		return d.compute(), nil
	})
	return stats
}

func (d *Dashboard) compute() DashboardStats {
	books := d.books.List()
	users := d.users.List()

	premium := 0
	for _, u := range users {
		if u.IsPremium() {
			premium++
		}
	}

	byCategory := make(map[string]int)
	byAccess := map[string]int{
		models.AccessFree:     0,
		models.AccessStandard: 0,
		models.AccessPremium:  0,
	}
	for _, b := range books {
		byCategory[b.Category]++
		byAccess[b.AccessLevel]++
	}
	counts := make([]CategoryCount, 0, len(byCategory))
	for name, n := range byCategory {
		counts = append(counts, CategoryCount{Category: name, Books: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Books != counts[j].Books {
			return counts[i].Books > counts[j].Books
		}
		return counts[i].Category < counts[j].Category
	})

	return DashboardStats{
		TotalBooks:      len(books),
		TotalUsers:      len(users),
		PremiumMembers:  premium,
		FreeMembers:     len(users) - premium,
		TotalCategories: len(d.categories.List()),
		BooksByCategory: counts,
		BooksByAccess:   byAccess,
		RecentActivity:  d.activity.Recent(5),
		GeneratedAt:     d.now().UTC(),
	}
}

// Membership returns premium members with recurring revenue figures.
func (d *Dashboard) Membership() MembershipStats {
	stats, _ := d.membership.GetOrLoad("membership", d.users.Version(), func() (MembershipStats, error) {
		members := d.users.PremiumMembers()
		return MembershipStats{
			PremiumCount: len(members),
			MRR:          MonthlyRevenue(len(members)),
			ARR:          AnnualRevenue(len(members)),
			Members:      members,
		}, nil
	})
	return stats
}
