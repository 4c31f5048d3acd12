package admintools

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/forumkit/anonboard/src/anonymize"
	"github.com/forumkit/anonboard/src/db"
	"github.com/forumkit/anonboard/src/store"
	"github.com/forumkit/anonboard/src/website"
	"github.com/spf13/cobra"
)

func init() {
	adminCommand := &cobra.Command{
		Use:   "admin",
		Short: "Miscellaneous admin commands",
	}
	website.WebsiteCommand.AddCommand(adminCommand)

	addUserCommand := &cobra.Command{
		Use:   "adduser [username] [userslug]",
		Short: "Create a forum user",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 2 {
				fmt.Printf("You must provide a username and a userslug.\n\n")
				cmd.Usage()
				os.Exit(1)
			}

			username := args[0]
			userslug := args[1]

			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			uid, err := db.QueryOneScalar[int](ctx, conn,
				`
				INSERT INTO forum_user (username, userslug)
				VALUES ($1, $2)
				RETURNING id
				`,
				username, userslug,
			)
			if err != nil {
				panic(err)
			}

			fmt.Printf("Created user '%s' with id %d\n", username, uid)
		},
	}
	adminCommand.AddCommand(addUserCommand)

	makeAdminCommand := &cobra.Command{
		Use:   "makeadmin [userslug]",
		Short: "Grant a user administrator status",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 {
				fmt.Printf("You must provide a userslug.\n\n")
				cmd.Usage()
				os.Exit(1)
			}

			userslug := args[0]

			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			tag, err := conn.Exec(ctx,
				`
				UPDATE forum_user
				SET admin = TRUE
				WHERE userslug = $1
				`,
				userslug,
			)
			if err != nil {
				panic(err)
			}
			if tag.RowsAffected() == 0 {
				fmt.Printf("User '%s' not found\n", userslug)
				os.Exit(1)
			}

			fmt.Printf("User '%s' is now an administrator\n", userslug)
		},
	}
	adminCommand.AddCommand(makeAdminCommand)

	showRecordCommand := &cobra.Command{
		Use:   "showrecord [pid]",
		Short: "Print the stored anonymity record of a post",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 {
				fmt.Printf("You must provide a post id.\n\n")
				cmd.Usage()
				os.Exit(1)
			}

			pid, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Printf("'%s' is not a post id\n", args[0])
				os.Exit(1)
			}

			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			pg := store.NewPG(conn)
			attrs, err := pg.Get(ctx, anonymize.PostKey(pid))
			if err != nil {
				panic(err)
			}
			if attrs == nil {
				fmt.Printf("Post %d not found\n", pid)
				os.Exit(1)
			}

			rec := anonymize.RecordFromAttrs(attrs)
			if !rec.Anonymous {
				fmt.Printf("Post %d is not anonymous\n", pid)
				return
			}
			fmt.Printf("Post %d: anonymous, real author uid %d, displayname %q\n", pid, rec.AnonymousUserID, rec.Displayname)
		},
	}
	adminCommand.AddCommand(showRecordCommand)
}
