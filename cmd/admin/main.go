package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"yatube/internal/config"
	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/repository/rdb"
	"yatube/internal/repository/redis"
	"yatube/internal/service"
)

type app struct {
	cfg    *config.Config
	db     *gorm.DB
	counts service.CountCache
	tokens service.TokenStore
}

func (a *app) open() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pkg.InitLogger(cfg.Env)
	db, err := rdb.Open(rdb.Options{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		return err
	}
	a.cfg, a.db = cfg, db
	if cfg.RedisAddr != "" {
		if err := redis.Init(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, cached counts will expire on their own")
			return nil
		}
		a.counts = redis.NewPostCountRepository()
		a.tokens = redis.NewSessionRepository(cfg.TokenTTL)
	}
	return nil
}

func (a *app) close() {
	if a.db != nil {
		_ = rdb.Close(a.db)
	}
	_ = redis.Close()
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:           "yatube-admin",
		Short:         "Out-of-band administration for Yatube",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.AddCommand(migrateCmd(), groupCmd(a), userCmd(a))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		a.close()
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			// opening the database already migrates it
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func groupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "group", Short: "Manage groups"}

	var title, slug, description string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := service.NewGroupService(a.db, a.counts).Create(cmd.Context(), title, slug, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created group %d %q (/group/%s/)\n", g.ID, g.Title, g.Slug)
			return nil
		},
	}
	create.Flags().StringVar(&title, "title", "", "group title, up to 200 characters")
	create.Flags().StringVar(&slug, "slug", "", "unique URL slug: letters, digits, - and _")
	create.Flags().StringVar(&description, "description", "", "group description")
	_ = create.MarkFlagRequired("title")
	_ = create.MarkFlagRequired("slug")

	list := &cobra.Command{
		Use:   "list",
		Short: "List groups by title",
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := service.NewGroupService(a.db, a.counts).List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSLUG\tTITLE")
			for _, g := range groups {
				fmt.Fprintf(w, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
			}
			return w.Flush()
		},
	}

	var groupPolicy string
	del := &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a group, applying the group delete policy to its posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := policyFor(groupPolicy, a.cfg.GroupDeletePolicy)
			if err != nil {
				return err
			}
			n, err := service.NewGroupService(a.db, a.counts).Delete(cmd.Context(), args[0], policy)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted group %s (%s, %d posts affected)\n", args[0], policy, n)
			return nil
		},
	}
	del.Flags().StringVar(&groupPolicy, "policy", "", "restrict, set_null or cascade (default GROUP_DELETE_POLICY)")

	cmd.AddCommand(create, list, del)
	return cmd
}

func userCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage users"}

	var userPolicy string
	del := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user, applying the user delete policy to their posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := policyFor(userPolicy, a.cfg.UserDeletePolicy)
			if err != nil {
				return err
			}
			if policy == model.PolicySetNull {
				return fmt.Errorf("policy %q is not valid for users", policy)
			}
			svc := service.NewUserService(a.db, a.tokens, pkg.NewTokenManager(a.cfg.JWTSecret, a.cfg.TokenTTL),
				service.WithCountCache(a.counts))
			n, err := svc.Delete(cmd.Context(), args[0], policy)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted user %s (%s, %d posts removed)\n", args[0], policy, n)
			return nil
		},
	}
	del.Flags().StringVar(&userPolicy, "policy", "", "restrict or cascade (default USER_DELETE_POLICY)")

	cmd.AddCommand(del)
	return cmd
}

func policyFor(flag string, def model.DeletePolicy) (model.DeletePolicy, error) {
	if flag == "" {
		return def, nil
	}
	return model.ParseDeletePolicy(flag)
}
