package reconcile

import (
	"fmt"

	"github.com/veld-sh/veld/pkg/eval"
)

// Repo is a desired source-package repository.
type Repo struct {
	Name            string
	Ref             *eval.RepoRef
	AllowRestricted bool
	NonFree         bool
}

// SlotSource is desired content for one of a package's configuration
// slots: the source file, and optionally the repository it comes from.
type SlotSource struct {
	Slot   string
	Source string
	Repo   *eval.RepoRef
}

// PackageRef is one desired package: a symbol, the user it belongs to
// (empty for system packages), and any configured slots in declaration
// order.
type PackageRef struct {
	Symbol string
	Owner  string
	Slots  []SlotSource
}

// Service is one desired service state. Downed services stay installed
// and enabled but are taken out of the running set.
type Service struct {
	Name    string
	Enabled bool
	Downed  bool
}

// User is one desired user account.
type User struct {
	Name     string
	Home     string
	Subdirs  []string
	Dotfiles *eval.RepoRef
}

// Desired is the reconciler's view of an evaluated configuration:
// everything in declaration order, so plans diff cleanly run to run.
type Desired struct {
	Repos    []Repo
	Packages []PackageRef
	Services []Service
	Users    []User
}

// ExtractDesired reduces an evaluated desired-state document into the
// reconciler's model. Shape violations name the offending config path.
func ExtractDesired(doc *eval.Document) (*Desired, error) {
	desired := &Desired{}
	config := doc.Config

	if v, ok := config.Get("vp_repos"); ok {
		repos, err := extractRepos(v)
		if err != nil {
			return nil, err
		}
		desired.Repos = repos
	}

	if v, ok := config.Get("packages"); ok {
		pkgs, err := extractPackages("system.config.packages", "", v)
		if err != nil {
			return nil, err
		}
		desired.Packages = pkgs
	}

	if v, ok := config.Get("users"); ok {
		if err := extractUsers(desired, v); err != nil {
			return nil, err
		}
	}

	if v, ok := config.Get("services"); ok {
		services, err := extractServices(v)
		if err != nil {
			return nil, err
		}
		desired.Services = services
	}

	return desired, nil
}

func extractRepos(v eval.Value) ([]Repo, error) {
	m, ok := v.(*eval.Map)
	if !ok {
		return nil, fmt.Errorf("system.config.vp_repos is a %s, expected a map", v.Kind())
	}
	repos := make([]Repo, 0, m.Len())
	for _, name := range m.Keys() {
		entry, _ := m.Get(name)
		body, ok := entry.(*eval.Map)
		if !ok {
			return nil, fmt.Errorf("system.config.vp_repos.%s is a %s, expected a map", name, entry.Kind())
		}
		repo := Repo{Name: name}

		location, ok := body.Get("location")
		if !ok {
			return nil, fmt.Errorf("system.config.vp_repos.%s has no location", name)
		}
		ref, ok := location.(*eval.RepoRef)
		if !ok {
			return nil, fmt.Errorf("system.config.vp_repos.%s.location is a %s, expected a repository", name, location.Kind())
		}
		// The branch field fills a repository reference built without
		// one, matching gh-r's two-argument form.
		if ref.Branch == "" {
			if branch, ok := body.Get("branch"); ok {
				if s, ok := branch.(eval.String); ok {
					copied := *ref
					copied.Branch = string(s)
					ref = &copied
				}
			}
		}
		repo.Ref = ref

		if flag, ok := body.Get("allow_restricted"); ok {
			b, ok := flag.(eval.Bool)
			if !ok {
				return nil, fmt.Errorf("system.config.vp_repos.%s.allow_restricted is a %s, expected a boolean", name, flag.Kind())
			}
			repo.AllowRestricted = bool(b)
		}
		if flag, ok := body.Get("nonfree"); ok {
			b, ok := flag.(eval.Bool)
			if !ok {
				return nil, fmt.Errorf("system.config.vp_repos.%s.nonfree is a %s, expected a boolean", name, flag.Kind())
			}
			repo.NonFree = bool(b)
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// extractPackages accepts a list whose items are either bare symbols or
// maps carrying a `package` symbol plus slot-name to source entries.
func extractPackages(path, owner string, v eval.Value) ([]PackageRef, error) {
	list, ok := v.(eval.List)
	if !ok {
		return nil, fmt.Errorf("%s is a %s, expected a list", path, v.Kind())
	}
	pkgs := make([]PackageRef, 0, len(list))
	for i, item := range list {
		switch t := item.(type) {
		case eval.Symbol:
			pkgs = append(pkgs, PackageRef{Symbol: string(t), Owner: owner})

		case *eval.Map:
			ref := PackageRef{Owner: owner}
			for _, key := range t.Keys() {
				value, _ := t.Get(key)
				if key == "package" {
					sym, ok := value.(eval.Symbol)
					if !ok {
						return nil, fmt.Errorf("%s[%d].package is a %s, expected a symbol", path, i, value.Kind())
					}
					ref.Symbol = string(sym)
					continue
				}
				slot, err := extractSlotSource(fmt.Sprintf("%s[%d].%s", path, i, key), key, value)
				if err != nil {
					return nil, err
				}
				ref.Slots = append(ref.Slots, slot)
			}
			if ref.Symbol == "" {
				return nil, fmt.Errorf("%s[%d] names no package", path, i)
			}
			pkgs = append(pkgs, ref)

		default:
			return nil, fmt.Errorf("%s[%d] is a %s, expected a symbol or map", path, i, item.Kind())
		}
	}
	return pkgs, nil
}

func extractSlotSource(path, slot string, v eval.Value) (SlotSource, error) {
	switch t := v.(type) {
	case eval.Path:
		return SlotSource{Slot: slot, Source: string(t)}, nil
	case eval.String:
		return SlotSource{Slot: slot, Source: string(t)}, nil
	case *eval.FileUse:
		return SlotSource{Slot: slot, Source: string(t.Source), Repo: t.Repo}, nil
	}
	return SlotSource{}, fmt.Errorf("%s is a %s, expected a path or use-file", path, v.Kind())
}

func extractUsers(desired *Desired, v eval.Value) error {
	m, ok := v.(*eval.Map)
	if !ok {
		return fmt.Errorf("system.config.users is a %s, expected a map", v.Kind())
	}
	for _, name := range m.Keys() {
		entry, _ := m.Get(name)
		body, ok := entry.(*eval.Map)
		if !ok {
			return fmt.Errorf("system.config.users.%s is a %s, expected a map", name, entry.Kind())
		}
		user := User{Name: name, Home: "/home/" + name}

		if homedir, ok := body.Get("homedir"); ok {
			hm, ok := homedir.(*eval.Map)
			if !ok {
				return fmt.Errorf("system.config.users.%s.homedir is a %s, expected a map", name, homedir.Kind())
			}
			if location, ok := hm.Get("location"); ok {
				switch t := location.(type) {
				case eval.Path:
					user.Home = string(t)
				case eval.String:
					user.Home = string(t)
				default:
					return fmt.Errorf("system.config.users.%s.homedir.location is a %s, expected a path", name, location.Kind())
				}
			}
			if subdirs, ok := hm.Get("subdirs"); ok {
				list, ok := subdirs.(eval.List)
				if !ok {
					return fmt.Errorf("system.config.users.%s.homedir.subdirs is a %s, expected a list", name, subdirs.Kind())
				}
				for _, item := range list {
					p, ok := item.(eval.Path)
					if !ok {
						return fmt.Errorf("system.config.users.%s.homedir.subdirs holds a %s, expected paths", name, item.Kind())
					}
					user.Subdirs = append(user.Subdirs, string(p))
				}
			}
		}

		if dotfiles, ok := body.Get("dotfiles"); ok {
			ref, ok := dotfiles.(*eval.RepoRef)
			if !ok {
				return fmt.Errorf("system.config.users.%s.dotfiles is a %s, expected a repository", name, dotfiles.Kind())
			}
			user.Dotfiles = ref
		}

		if packages, ok := body.Get("packages"); ok {
			pkgs, err := extractPackages("system.config.users."+name+".packages", name, packages)
			if err != nil {
				return err
			}
			desired.Packages = append(desired.Packages, pkgs...)
		}

		desired.Users = append(desired.Users, user)
	}
	return nil
}

func extractServices(v eval.Value) ([]Service, error) {
	list, ok := v.(eval.List)
	if !ok {
		return nil, fmt.Errorf("system.config.services is a %s, expected a list", v.Kind())
	}
	services := make([]Service, 0, len(list))
	for i, item := range list {
		body, ok := item.(*eval.Map)
		if !ok {
			return nil, fmt.Errorf("system.config.services[%d] is a %s, expected a map", i, item.Kind())
		}
		nameValue, ok := body.Get("name")
		if !ok {
			return nil, fmt.Errorf("system.config.services[%d] has no name", i)
		}
		svc := Service{Enabled: true}
		switch t := nameValue.(type) {
		case eval.String:
			svc.Name = string(t)
		case eval.Symbol:
			svc.Name = string(t)
		default:
			return nil, fmt.Errorf("system.config.services[%d].name is a %s, expected a string", i, nameValue.Kind())
		}

		if flag, ok := body.Get("enabled"); ok {
			if b, ok := flag.(eval.Bool); ok {
				svc.Enabled = bool(b)
			}
		}
		if flag, ok := body.Get("downed"); ok {
			if b, ok := flag.(eval.Bool); ok {
				svc.Downed = bool(b)
			}
		}
		services = append(services, svc)
	}
	return services, nil
}
