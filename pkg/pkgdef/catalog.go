package pkgdef

// Catalog is the builtin package table: a small, hand-maintained set of
// descriptors for packages that need more than the ordinary defaults.
// Anything the catalog does not cover synthesizes an ordinary descriptor
// on demand; definition units are the designed escape hatch for the rest.
type Catalog struct {
	entries map[string]*Descriptor
}

// DefaultCatalog builds the builtin table.
func DefaultCatalog() *Catalog {
	c := &Catalog{entries: make(map[string]*Descriptor)}
	for _, d := range []*Descriptor{
		{
			Symbol:       "bash",
			ExternalName: "bash",
			Slots: []ConfigSlot{
				{Name: "bashrc", Location: "~/.bashrc"},
				{Name: "bash_profile", Location: "~/.bash_profile"},
			},
		},
		{
			Symbol:       "zsh",
			ExternalName: "zsh",
			Slots:        []ConfigSlot{{Location: "~/.zshrc"}},
		},
		{
			Symbol:       "vim",
			ExternalName: "vim",
			Slots:        []ConfigSlot{{Location: "~/.vimrc"}},
		},
		{
			Symbol:       "neovim",
			ExternalName: "neovim",
			Slots:        []ConfigSlot{{Location: "~/.config/nvim/init.vim"}},
		},
		{
			Symbol:       "git",
			ExternalName: "git",
			Slots:        []ConfigSlot{{Location: "~/.gitconfig"}},
		},
		{
			Symbol:       "tmux",
			ExternalName: "tmux",
			Slots:        []ConfigSlot{{Location: "~/.tmux.conf"}},
		},
		{
			Symbol:       "alacritty",
			ExternalName: "alacritty",
			Slots:        []ConfigSlot{{Location: "~/.config/alacritty/alacritty.toml"}},
		},
		{
			Symbol:       "sway",
			ExternalName: "sway",
			Slots:        []ConfigSlot{{Location: "~/.config/sway/config"}},
		},
		{
			Symbol:       "intel-ucode",
			ExternalName: "intel-ucode",
			NonFree:      true,
		},
		{
			Symbol:       "discord",
			ExternalName: "Discord",
			Restricted:   true,
		},
		{
			Symbol:       "spotify",
			ExternalName: "spotify",
			Restricted:   true,
		},
	} {
		c.entries[d.Symbol] = d
	}
	return c
}

// Lookup returns the catalog descriptor for a symbol, or false when the
// catalog carries no entry for it.
func (c *Catalog) Lookup(symbol string) (*Descriptor, bool) {
	d, ok := c.entries[symbol]
	return d, ok
}

// Synthesize builds the ordinary default descriptor for a symbol neither
// the registry nor the catalog knows: non-restricted, non-nonfree, no
// configuration, external name equal to the symbol.
func Synthesize(symbol string) *Descriptor {
	return &Descriptor{Symbol: symbol, ExternalName: symbol}
}
