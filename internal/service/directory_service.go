package service

import (
	"context"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/DaDevFox/task-systems/social-core/internal/aggregate"
	"github.com/DaDevFox/task-systems/social-core/internal/domain"
	"github.com/DaDevFox/task-systems/social-core/internal/events"
	"github.com/DaDevFox/task-systems/social-core/internal/hierarchy"
	"github.com/DaDevFox/task-systems/social-core/internal/repository"
)

// Stats is a consistent snapshot of every directory statistic
type Stats struct {
	Users            int    `json:"users"`
	Groups           int    `json:"groups"`
	Posts            int    `json:"posts"`
	PositivePercent  int    `json:"positive_percent"`
	NamesValid       bool   `json:"names_valid"`
	MostRecentPoster string `json:"most_recent_poster"`
}

// UserInfo describes one user for a front end's detail panel
type UserInfo struct {
	Name         string    `json:"name"`
	Group        string    `json:"group"`
	CreatedAt    time.Time `json:"created_at"`
	LastPostedAt time.Time `json:"last_posted_at"`
	Following    []string  `json:"following"`
	Followers    int       `json:"followers"`
	PostCount    int       `json:"post_count"`
}

// DirectoryService exposes the hierarchy to front ends. Mutations hold the
// write lock and statistics the read lock; post delivery runs after the lock
// is released, so feed sinks may call back into the service.
type DirectoryService struct {
	mu   sync.RWMutex
	tree *hierarchy.Hierarchy

	sinksMu sync.RWMutex
	sinks   map[string]events.FeedSink // attached front-end sinks

	feeds  repository.FeedRepository
	bus    *events.Bus
	logger *logrus.Logger
}

// NewDirectoryService constructs a DirectoryService. A nil tree, feed
// repository or bus is replaced with an empty in-memory one.
func NewDirectoryService(tree *hierarchy.Hierarchy, feeds repository.FeedRepository, bus *events.Bus, logger *logrus.Logger) *DirectoryService {
	if logger == nil {
		logger = logrus.New()
	}
	if tree == nil {
		tree = hierarchy.New(nil)
	}
	if feeds == nil {
		feeds = repository.NewInMemoryFeedRepository()
	}
	if bus == nil {
		bus = events.NewBus(logger)
	}
	return &DirectoryService{
		tree:   tree,
		sinks:  make(map[string]events.FeedSink),
		feeds:  feeds,
		bus:    bus,
		logger: logger,
	}
}

// Bus returns the activity bus mutations are published on
func (s *DirectoryService) Bus() *events.Bus {
	return s.bus
}

// CreateRoot creates the root group
func (s *DirectoryService) CreateRoot(ctx context.Context, name string) (*domain.Group, error) {
	s.mu.Lock()
	g, err := s.tree.CreateRoot(name)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.logger.WithField("group", name).Info("root group created")
	s.bus.Publish(ctx, events.NewEvent(events.EventGroupCreated, name, map[string]interface{}{
		"group":  name,
		"parent": "",
	}))
	return g, nil
}

// AddGroup creates a group under parentName, or under the root when
// parentName is empty
func (s *DirectoryService) AddGroup(ctx context.Context, name, parentName string) (*domain.Group, error) {
	s.mu.Lock()
	parent, err := s.resolveParent(parentName)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	g, err := s.tree.AddGroup(name, parent)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"group":  name,
		"parent": g.Parent(),
	}).Info("group created")
	s.bus.Publish(ctx, events.NewEvent(events.EventGroupCreated, name, map[string]interface{}{
		"group":  name,
		"parent": g.Parent(),
	}))
	return g, nil
}

// AddUser creates a user in groupName, or in the root when groupName is empty
func (s *DirectoryService) AddUser(ctx context.Context, name, groupName string) (*domain.User, error) {
	s.mu.Lock()
	parent, err := s.resolveParent(groupName)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	u, err := s.tree.AddUser(name, parent)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user":  name,
		"group": u.Group(),
	}).Info("user created")
	s.bus.Publish(ctx, events.NewEvent(events.EventUserCreated, name, map[string]interface{}{
		"user":  name,
		"group": u.Group(),
	}))
	return u, nil
}

// resolveParent must be called with mu held
func (s *DirectoryService) resolveParent(name string) (*domain.Group, error) {
	if name == "" {
		return nil, nil
	}
	g, ok := s.tree.Group(name)
	if !ok {
		return nil, pkgerrors.Wrapf(domain.ErrInvalidParent, "no group named %q", name)
	}
	return g, nil
}

// FindByName searches the hierarchy depth-first
func (s *DirectoryService) FindByName(name string) domain.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.FindByName(name)
}

// NameExists checks the registered-name index
func (s *DirectoryService) NameExists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.NameExists(name)
}

// AllEntries lists every entry in pre-order
func (s *DirectoryService) AllEntries() []domain.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.AllEntries()
}

// Walk visits every entry in pre-order with its depth. fn must not mutate
// the directory.
func (s *DirectoryService) Walk(fn func(e domain.Entry, depth int)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.tree.Walk(fn)
}

// PostContent records a post by userName and delivers it to every current
// subscriber. The post stays recorded when some deliveries fail; the
// failures are returned joined.
func (s *DirectoryService) PostContent(ctx context.Context, userName, text string) error {
	s.mu.Lock()
	u, ok := s.tree.User(userName)
	if !ok {
		s.mu.Unlock()
		return pkgerrors.Wrapf(domain.ErrUserNotFound, "post by %q", userName)
	}
	at := s.tree.Now()
	if err := u.Post(text, at); err != nil {
		s.mu.Unlock()
		return err
	}
	subscribers := u.Notifier().Snapshot()
	s.mu.Unlock()

	d := events.NewDelivery(userName, text, at)
	delivered, err := events.Deliver(ctx, d, subscribers, s.resolveSink)

	entry := s.logger.WithFields(logrus.Fields{
		"user":        userName,
		"delivery_id": d.ID,
		"subscribers": len(subscribers),
		"delivered":   delivered,
	})
	entry.Info("post published")
	for _, failure := range unjoin(err) {
		entry.WithError(failure).Error("feed delivery failed")
	}

	s.bus.Publish(ctx, events.NewEvent(events.EventPostPublished, userName, map[string]interface{}{
		"delivery_id": d.ID,
		"text":        text,
		"delivered":   delivered,
		"subscribers": len(subscribers),
	}))

	if err != nil {
		return pkgerrors.Wrapf(err, "post by %s reached %d of %d feeds", userName, delivered, len(subscribers))
	}
	return nil
}

// resolveSink stores every delivery in the feed repository and forwards it
// to the subscriber's attached sink, if any
func (s *DirectoryService) resolveSink(subscriber string) events.FeedSink {
	s.sinksMu.RLock()
	attached := s.sinks[subscriber]
	s.sinksMu.RUnlock()
	return events.Fanout(repository.FeedSink(s.feeds, subscriber), attached)
}

func unjoin(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// Follow subscribes userName to targetName's posts
func (s *DirectoryService) Follow(ctx context.Context, userName, targetName string) error {
	s.mu.Lock()
	u, ok := s.tree.User(userName)
	if !ok {
		s.mu.Unlock()
		return pkgerrors.Wrapf(domain.ErrUserNotFound, "follow by %q", userName)
	}
	target, ok := s.tree.User(targetName)
	if !ok {
		s.mu.Unlock()
		return pkgerrors.Wrapf(domain.ErrUnknownTarget, "%q is not a user", targetName)
	}
	if u.IsFollowing(targetName) {
		s.mu.Unlock()
		return pkgerrors.Wrapf(domain.ErrAlreadyFollowing, "%s already follows %s", userName, targetName)
	}
	u.Follow(targetName)
	target.Notifier().Subscribe(userName)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"user":   userName,
		"target": targetName,
	}).Info("follow added")
	s.bus.Publish(ctx, events.NewEvent(events.EventFollowAdded, userName, map[string]interface{}{
		"target": targetName,
	}))
	return nil
}

// FollowingList returns who userName follows, self first
func (s *DirectoryService) FollowingList(userName string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.tree.User(userName)
	if !ok {
		return nil, pkgerrors.Wrapf(domain.ErrUserNotFound, "following list of %q", userName)
	}
	return u.Following(), nil
}

// AttachFeed forwards future deliveries for userName to sink in addition to
// the feed repository. A nil sink detaches.
func (s *DirectoryService) AttachFeed(userName string, sink events.FeedSink) error {
	s.mu.RLock()
	_, ok := s.tree.User(userName)
	s.mu.RUnlock()
	if !ok {
		return pkgerrors.Wrapf(domain.ErrUserNotFound, "attach feed for %q", userName)
	}

	s.sinksMu.Lock()
	defer s.sinksMu.Unlock()
	if sink == nil {
		delete(s.sinks, userName)
		return nil
	}
	s.sinks[userName] = sink
	return nil
}

// Feed returns the deliveries userName has received, newest first
func (s *DirectoryService) Feed(ctx context.Context, userName string, limit int) ([]events.Delivery, error) {
	s.mu.RLock()
	_, ok := s.tree.User(userName)
	s.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.Wrapf(domain.ErrUserNotFound, "feed of %q", userName)
	}

	items, err := s.feeds.List(ctx, userName, limit)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "load feed of %s", userName)
	}
	return items, nil
}

// UserInfo returns details about one user
func (s *DirectoryService) UserInfo(userName string) (UserInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.tree.User(userName)
	if !ok {
		return UserInfo{}, pkgerrors.Wrapf(domain.ErrUserNotFound, "info for %q", userName)
	}
	return UserInfo{
		Name:         u.Name(),
		Group:        u.Group(),
		CreatedAt:    u.CreatedAt(),
		LastPostedAt: u.LastPostedAt(),
		Following:    u.Following(),
		Followers:    u.Notifier().Len(),
		PostCount:    u.PostCount(),
	}, nil
}

func (s *DirectoryService) run(agg aggregate.Aggregator) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return aggregate.Run(s.tree.AllEntries(), agg)
}

// UserCount returns the number of users
func (s *DirectoryService) UserCount() int {
	return s.run(aggregate.NewUserCount())
}

// GroupCount returns the number of groups, root included
func (s *DirectoryService) GroupCount() int {
	return s.run(aggregate.NewGroupCount())
}

// TweetCount returns the number of posts across all users
func (s *DirectoryService) TweetCount() int {
	return s.run(aggregate.NewTweetCount())
}

// PositiveTweetPercent returns the integer percentage of positive posts
func (s *DirectoryService) PositiveTweetPercent() int {
	return s.run(aggregate.NewPositiveTweetRatio())
}

// ValidateNames reports whether every name is unique and whitespace free
func (s *DirectoryService) ValidateNames() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.tree.AllEntries()
	return aggregate.Run(entries, aggregate.NewNameValidity()) == len(entries)
}

// MostRecentPoster returns the name of the user with the latest post, or
// aggregate.NoPoster
func (s *DirectoryService) MostRecentPoster() string {
	agg := aggregate.NewMostRecentPoster()
	s.run(agg)
	return agg.Name()
}

// Stats computes every statistic over one consistent view of the directory
func (s *DirectoryService) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.tree.AllEntries()
	recent := aggregate.NewMostRecentPoster()
	aggregate.Run(entries, recent)

	return Stats{
		Users:            aggregate.Run(entries, aggregate.NewUserCount()),
		Groups:           aggregate.Run(entries, aggregate.NewGroupCount()),
		Posts:            aggregate.Run(entries, aggregate.NewTweetCount()),
		PositivePercent:  aggregate.Run(entries, aggregate.NewPositiveTweetRatio()),
		NamesValid:       aggregate.Run(entries, aggregate.NewNameValidity()) == len(entries),
		MostRecentPoster: recent.Name(),
	}
}

// Close releases the feed repository
func (s *DirectoryService) Close() error {
	if err := s.feeds.Close(); err != nil {
		return pkgerrors.Wrap(err, "close feed repository")
	}
	return nil
}
