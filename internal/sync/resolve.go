package sync

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/traindash/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Resolver provides get-or-create lookups for the normalized entities.
// Concurrent sync runs (the scheduled cycle and a manually triggered sync)
// may race on creating the same row; every create here follows the same
// pattern: insert, and on failure re-read by natural key, since the row
// the concurrent writer committed is guaranteed to be there.
type Resolver struct {
	db *gorm.DB
}

// NewResolver creates a Resolver backed by db.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// User finds or creates a user by GitHub login. role is only applied on
// creation; an existing user's role is never downgraded by sync.
func (r *Resolver) User(login, role string) (*models.User, error) {
	if login == "" {
		return nil, fmt.Errorf("resolve: empty user login")
	}
	var u models.User
	err := r.db.Where("github_username = ?", login).First(&u).Error
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("resolve: query user %q: %w", login, err)
	}

	u = models.User{GithubUsername: login, Role: role, IsActive: true}
	if cerr := r.db.Create(&u).Error; cerr != nil {
		// A concurrent writer may have inserted the same login; re-read.
		var again models.User
		if rerr := r.db.Where("github_username = ?", login).First(&again).Error; rerr == nil {
			return &again, nil
		}
		return nil, fmt.Errorf("resolve: create user %q: %w", login, cerr)
	}
	return &u, nil
}

// Domain finds or creates a domain by normalized name.
func (r *Resolver) Domain(name string) (*models.Domain, error) {
	norm := NormalizeDomain(name)
	if norm == "" {
		return nil, fmt.Errorf("resolve: empty domain name")
	}
	var d models.Domain
	err := r.db.Where("domain_name = ?", norm).First(&d).Error
	if err == nil {
		return &d, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("resolve: query domain %q: %w", norm, err)
	}

	d = models.Domain{
		DomainName:  norm,
		DisplayName: displayName(norm),
		IsActive:    true,
	}
	if cerr := r.db.Create(&d).Error; cerr != nil {
		var again models.Domain
		if rerr := r.db.Where("domain_name = ?", norm).First(&again).Error; rerr == nil {
			return &again, nil
		}
		return nil, fmt.Errorf("resolve: create domain %q: %w", norm, cerr)
	}
	return &d, nil
}

// Interface finds or creates a numbered interface within a domain.
func (r *Resolver) Interface(domainID uint, num int) (*models.Interface, error) {
	var iface models.Interface
	err := r.db.Where("domain_id = ? AND interface_num = ?", domainID, num).First(&iface).Error
	if err == nil {
		return &iface, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("resolve: query interface %d/%d: %w", domainID, num, err)
	}

	iface = models.Interface{
		DomainID:     domainID,
		InterfaceNum: num,
		Name:         fmt.Sprintf("Interface %d", num),
		IsActive:     true,
	}
	if cerr := r.db.Create(&iface).Error; cerr != nil {
		var again models.Interface
		if rerr := r.db.Where("domain_id = ? AND interface_num = ?", domainID, num).First(&again).Error; rerr == nil {
			return &again, nil
		}
		return nil, fmt.Errorf("resolve: create interface %d/%d: %w", domainID, num, cerr)
	}
	return &iface, nil
}

// Week finds or creates a week by number. Week names use the same
// lowercase week_<n> format everywhere to avoid duplicate entities.
func (r *Resolver) Week(weekNum int) (*models.Week, error) {
	weekName := fmt.Sprintf("week_%d", weekNum)
	var w models.Week
	err := r.db.Where("week_name = ?", weekName).First(&w).Error
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("resolve: query week %q: %w", weekName, err)
	}

	w = models.Week{
		WeekName:    weekName,
		WeekNum:     weekNum,
		DisplayName: fmt.Sprintf("Week %d", weekNum),
		IsActive:    true,
	}
	if cerr := r.db.Create(&w).Error; cerr != nil {
		var again models.Week
		if rerr := r.db.Where("week_name = ?", weekName).First(&again).Error; rerr == nil {
			return &again, nil
		}
		return nil, fmt.Errorf("resolve: create week %q: %w", weekName, cerr)
	}
	return &w, nil
}

// Pod finds or creates a pod by name.
func (r *Resolver) Pod(name string) (*models.Pod, error) {
	if name == "" {
		return nil, fmt.Errorf("resolve: empty pod name")
	}
	var p models.Pod
	err := r.db.Where("name = ?", name).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("resolve: query pod %q: %w", name, err)
	}

	p = models.Pod{
		Name:        name,
		DisplayName: displayName(name),
		IsActive:    true,
	}
	if cerr := r.db.Create(&p).Error; cerr != nil {
		var again models.Pod
		if rerr := r.db.Where("name = ?", name).First(&again).Error; rerr == nil {
			return &again, nil
		}
		return nil, fmt.Errorf("resolve: create pod %q: %w", name, cerr)
	}
	return &p, nil
}

// EnsureDomainAssignment records that a user has touched a domain. A no-op
// when the assignment already exists.
func (r *Resolver) EnsureDomainAssignment(userID, domainID uint) error {
	assignment := models.UserDomainAssignment{
		UserID:         userID,
		DomainID:       domainID,
		AssignmentType: "auto",
		AssignedAt:     time.Now().UTC(),
		IsActive:       true,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "domain_id"}},
		DoNothing: true,
	}).Create(&assignment).Error
	if err != nil {
		return fmt.Errorf("resolve: assign user %d to domain %d: %w", userID, domainID, err)
	}
	return nil
}

// displayName turns an underscore name into a human-readable title.
func displayName(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
