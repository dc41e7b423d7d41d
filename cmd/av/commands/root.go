package commands

import (
	"fmt"
	"os"

	"archivault/pkg/client"
	"archivault/pkg/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	// 全局客户端实例，供子命令使用
	AV *client.Repository
)

var rootCmd = &cobra.Command{
	Use:   "av",
	Short: "ArchiVault: versioned digital object repository client",
	// 【关键】PersistentPreRunE 会在所有子命令执行前运行
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 统一初始化客户端
		var err error
		AV, err = client.New(viper.GetString("server.base_url"))
		if err != nil {
			return fmt.Errorf("failed to initialize archivault client: %w", err)
		}
		return nil
	},
}

// Execute 是入口
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// 在初始化时，加载配置
	cobra.OnInitialize(initConfig)

	// 1. 定义全局参数 --config
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.av/config.yaml)")

	// 2. 定义 server.base_url 参数，并绑定到 Viper
	// 这样用户既可以在 yaml 里写，也可以用 --server 覆盖
	rootCmd.PersistentFlags().String("server", "", "Repository server base URL")
	err := viper.BindPFlag("server.base_url", rootCmd.PersistentFlags().Lookup("server"))
	if err != nil {
		fmt.Println("Failed to bind flag:", err)
		os.Exit(1)
	}
}

// initConfig 读取配置文件和环境变量
func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		fmt.Println("Config error:", err)
		os.Exit(1)
	}
}
