package store

import (
	"context"
	"log/slog"

	"github.com/aksoyhq/dutyroster/internal/model"
)

// SeedUsers returns the bootstrap accounts installed on first run so the
// application is usable before an admin creates real ones.
func SeedUsers() []model.User {
	return []model.User{
		{Username: "admin", Password: "123", FullName: "Sistem Yöneticisi", Role: model.RoleAdmin},
		{Username: "user", Password: "123", FullName: "Personel Kullanıcısı", Role: model.RoleUser},
	}
}

// SeedPersonnel returns a small sample directory for offline use and tests.
func SeedPersonnel() []model.Personnel {
	return []model.Personnel{
		{Sicil: "12345", GivenName: "Ahmet", FamilyName: "Yılmaz", Rank: "Polis Memuru", NationalID: "12345678901", BirthDate: "15.05.1990", Phone: "0555 111 22 33"},
		{Sicil: "12346", GivenName: "Mehmet", FamilyName: "Demir", Rank: "Başpolis", NationalID: "23456789012", BirthDate: "20.10.1985", Phone: "0555 222 33 44"},
		{Sicil: "12347", GivenName: "Ayşe", FamilyName: "Kaya", Rank: "Komiser Yardımcısı", NationalID: "34567890123", BirthDate: "05.03.1992", Phone: "0555 333 44 55"},
		{Sicil: "12348", GivenName: "Fatma", FamilyName: "Çelik", Rank: "Polis Memuru", NationalID: "45678901234", BirthDate: "12.12.1995", Phone: "0555 444 55 66"},
		{Sicil: "12349", GivenName: "Mustafa", FamilyName: "Şahin", Rank: "Bekçi", NationalID: "56789012345", BirthDate: "01.01.1998", Phone: "0555 555 66 77"},
		{Sicil: "11111", GivenName: "Ali", FamilyName: "Öztürk", Rank: "Emniyet Müdürü", NationalID: "67890123456", BirthDate: "10.09.1975", Phone: "0555 666 77 88"},
		{Sicil: "22222", GivenName: "Zeynep", FamilyName: "Arslan", Rank: "Polis Memuru", NationalID: "78901234567", BirthDate: "25.06.1993", Phone: "0555 777 88 99"},
	}
}

// EnsureSeeded installs the bootstrap accounts and sample personnel when the
// store holds no users yet. Existing data is never touched.
func EnsureSeeded(ctx context.Context, s Store, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	users, err := s.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}
	for _, u := range SeedUsers() {
		if err := s.CreateUser(ctx, u); err != nil {
			return err
		}
	}
	if people, err := s.ListPersonnel(ctx); err == nil && len(people) == 0 {
		if err := s.ReplacePersonnel(ctx, SeedPersonnel()); err != nil {
			return err
		}
	}
	logger.Info("store seeded with bootstrap accounts")
	return nil
}
