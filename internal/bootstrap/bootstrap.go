package bootstrap

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/DaDevFox/task-systems/social-core/internal/domain"
)

// Directory is the part of the directory service seeding needs
type Directory interface {
	AddGroup(ctx context.Context, name, parentName string) (*domain.Group, error)
	AddUser(ctx context.Context, name, groupName string) (*domain.User, error)
	Follow(ctx context.Context, userName, targetName string) error
	PostContent(ctx context.Context, userName, text string) error
}

// Definition is the seed file layout. Sections are applied in field order.
type Definition struct {
	Groups  []GroupSeed  `yaml:"groups"`
	Users   []UserSeed   `yaml:"users"`
	Follows []FollowSeed `yaml:"follows"`
	Posts   []PostSeed   `yaml:"posts"`
}

// GroupSeed creates a group; an empty parent means the root
type GroupSeed struct {
	Name   string `yaml:"name"`
	Parent string `yaml:"parent"`
}

// UserSeed creates a user; an empty group means the root
type UserSeed struct {
	Name  string `yaml:"name"`
	Group string `yaml:"group"`
}

type FollowSeed struct {
	User   string `yaml:"user"`
	Target string `yaml:"target"`
}

type PostSeed struct {
	User string `yaml:"user"`
	Text string `yaml:"text"`
}

// Demo is the sample directory socialctl --demo starts from
var Demo = Definition{
	Groups: []GroupSeed{
		{Name: "Huber"},
		{Name: "Allison"},
	},
	Users: []UserSeed{
		{Name: "Frank"},
		{Name: "Katie"},
		{Name: "Patty"},
		{Name: "Karen"},
		{Name: "Rick"},
		{Name: "Kathleen"},
		{Name: "Liam", Group: "Huber"},
		{Name: "Alita", Group: "Huber"},
		{Name: "David", Group: "Allison"},
		{Name: "Emily", Group: "Allison"},
	},
}

// ParseDefinition decodes a YAML seed document
func ParseDefinition(contents []byte) (*Definition, error) {
	def := &Definition{}
	if err := yaml.Unmarshal(contents, def); err != nil {
		return nil, errors.Wrap(err, "parse seed yaml")
	}
	if len(def.Groups) == 0 && len(def.Users) == 0 {
		return nil, errors.New("seed defines no groups or users")
	}
	return def, nil
}

// SeedFromFile applies the seed definition in filePath to dir. The first
// failing item aborts seeding; entries created before it remain.
func SeedFromFile(ctx context.Context, dir Directory, filePath string, logger *logrus.Logger) error {
	if dir == nil {
		return errors.New("directory is required")
	}

	if filePath == "" {
		return errors.New("seed file path is required")
	}

	contents, err := os.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "read seed file %s", filePath)
	}

	def, err := ParseDefinition(contents)
	if err != nil {
		return errors.Wrapf(err, "seed file %s", filePath)
	}

	return Apply(ctx, dir, def, logger)
}

// SeedDemo populates dir with the Demo directory
func SeedDemo(ctx context.Context, dir Directory, logger *logrus.Logger) error {
	return Apply(ctx, dir, &Demo, logger)
}

// Apply replays def against dir: groups, then users, follows and posts
func Apply(ctx context.Context, dir Directory, def *Definition, logger *logrus.Logger) error {
	if logger == nil {
		logger = logrus.New()
	}

	for index, g := range def.Groups {
		if _, err := dir.AddGroup(ctx, g.Name, g.Parent); err != nil {
			return errors.Wrapf(err, "seed group %d (%s)", index, g.Name)
		}
	}

	for index, u := range def.Users {
		if _, err := dir.AddUser(ctx, u.Name, u.Group); err != nil {
			return errors.Wrapf(err, "seed user %d (%s)", index, u.Name)
		}
	}

	for index, f := range def.Follows {
		if err := dir.Follow(ctx, f.User, f.Target); err != nil {
			return errors.Wrapf(err, "seed follow %d (%s -> %s)", index, f.User, f.Target)
		}
	}

	for index, p := range def.Posts {
		if err := dir.PostContent(ctx, p.User, p.Text); err != nil {
			return errors.Wrapf(err, "seed post %d (%s)", index, p.User)
		}
	}

	logger.WithFields(logrus.Fields{
		"groups":  len(def.Groups),
		"users":   len(def.Users),
		"follows": len(def.Follows),
		"posts":   len(def.Posts),
	}).Info("directory seeded")

	return nil
}
