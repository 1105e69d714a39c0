package auth

import (
	"fmt"
	"strings"
)

// ShowCookieExtractionGuide displays step-by-step instructions for
// extracting the TikTok session cookie from a browser.
func ShowCookieExtractionGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("📚 TIKTOK SESSION COOKIE GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("The monitor works without a session, but an authenticated session")
	fmt.Println("gets rate-limited far less aggressively. To extract yours:")
	fmt.Println()

	fmt.Println("🌐 STEP 1: Open TikTok in your browser")
	fmt.Println("   - Go to https://www.tiktok.com")
	fmt.Println("   - Log in with your account")
	fmt.Println()

	fmt.Println("🔧 STEP 2: Open Developer Tools")
	fmt.Println("   • Chrome/Edge/Brave: Press F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)")
	fmt.Println("   • Firefox: Press F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)")
	fmt.Println("   • Safari: Enable Developer menu in Preferences, then Cmd+Option+I")
	fmt.Println()

	fmt.Println("🍪 STEP 3: Find the session cookie")
	fmt.Println("   1. Go to 'Application' tab (Chrome) or 'Storage' tab (Firefox)")
	fmt.Println("   2. In the left sidebar, expand 'Cookies'")
	fmt.Println("   3. Click on 'https://www.tiktok.com'")
	fmt.Println("   4. Find the cookie named 'sessionid' and copy its value")
	fmt.Println()

	fmt.Println("💡 TIPS:")
	fmt.Println("   • Copy the ENTIRE value (everything after the = sign)")
	fmt.Println("   • Don't include quotes or semicolons")
	fmt.Println("   • The cookie expires, so you may need to refresh it periodically")
	fmt.Println()

	fmt.Println("⚠️  SECURITY WARNING:")
	fmt.Println("   • This cookie gives FULL access to your TikTok account")
	fmt.Println("   • NEVER share it with anyone")
	fmt.Println("   • Store it securely (this tool encrypts it)")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickExtractGuide shows a condensed version for experienced users
func ShowQuickExtractGuide() {
	fmt.Println("\n🍪 Quick Guide: F12 → Application/Storage → Cookies → tiktok.com → sessionid")
	fmt.Println("   Run 'auth login' without --quick for detailed instructions")
}
