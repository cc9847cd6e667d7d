package e2e

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// E2ETestSuite проверяет сценарии сотрудника и администратора в браузере.
type E2ETestSuite struct {
	suite.Suite
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	expect  playwright.PlaywrightAssertions
	run     string
}

func (suite *E2ETestSuite) SetupSuite() {
	pw, err := playwright.Run()
	require.NoError(suite.T(), err, "could not launch playwright")
	suite.pw = pw

	browser, err := pw.Chromium.Launch()
	require.NoError(suite.T(), err, "could not launch chromium")
	suite.browser = browser

	suite.expect = playwright.NewPlaywrightAssertions()
	suite.run = fmt.Sprintf("%d", time.Now().UnixNano())
}

func (suite *E2ETestSuite) TearDownSuite() {
	if suite.browser != nil {
		suite.browser.Close()
	}
	if suite.pw != nil {
		suite.pw.Stop()
	}
}

func (suite *E2ETestSuite) SetupTest() {
	page, err := suite.browser.NewPage()
	require.NoError(suite.T(), err, "could not create page")
	suite.page = page

	_, err = suite.page.Goto(appURL)
	require.NoError(suite.T(), err, "could not navigate to app")
}

func (suite *E2ETestSuite) TearDownTest() {
	if suite.page != nil {
		suite.page.Close()
	}
}

func (suite *E2ETestSuite) login(role, email string) {
	t := suite.T()

	err := suite.expect.Locator(suite.page.GetByTestId("form-" + role)).ToBeVisible()
	require.NoError(t, err, "login form not visible")

	require.NoError(t, suite.page.GetByTestId(role+"-email-input").Fill(email))
	require.NoError(t, suite.page.GetByTestId(role+"-password-input").Fill("e2e-password"))
	require.NoError(t, suite.page.GetByTestId(role+"-login-button").Click())
}

// receipt пишет PNG для поля файла.
func (suite *E2ETestSuite) receipt() string {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	require.NoError(suite.T(), png.Encode(&buf, img))

	path := filepath.Join(suite.T().TempDir(), "receipt.png")
	require.NoError(suite.T(), os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func (suite *E2ETestSuite) createBill(name string) {
	t := suite.T()

	require.NoError(t, suite.page.GetByTestId("icon-mail").Click())
	err := suite.expect.Locator(suite.page.GetByTestId("form-new-bill")).ToBeVisible()
	require.NoError(t, err, "new bill form not visible")

	_, err = suite.page.GetByTestId("expense-type").SelectOption(playwright.SelectOptionValues{
		Values: &[]string{"Transports"},
	})
	require.NoError(t, err, "failed to select expense type")
	require.NoError(t, suite.page.GetByTestId("expense-name").Fill(name))
	require.NoError(t, suite.page.GetByTestId("datepicker").Fill("2004-04-04"))
	require.NoError(t, suite.page.GetByTestId("amount").Fill("348"))
	require.NoError(t, suite.page.GetByTestId("vat").Fill("70"))
	require.NoError(t, suite.page.GetByTestId("file").SetInputFiles(suite.receipt()))
	require.NoError(t, suite.page.Locator("#btn-send-bill").Click())
}

func (suite *E2ETestSuite) TestEmployeeCreatesBill() {
	t := suite.T()
	name := "e2e-train-" + suite.run

	suite.login("employee", "employee-"+suite.run+"@billed.test")
	err := suite.expect.Locator(suite.page.GetByTestId("tbody")).ToBeAttached()
	require.NoError(t, err, "did not redirect to bills page after login")

	suite.createBill(name)

	item := suite.page.GetByTestId("bill-item").Filter(playwright.LocatorFilterOptions{HasText: name})
	require.NoError(t, suite.expect.Locator(item).ToHaveCount(1), "bill not listed")
	require.NoError(t, suite.expect.Locator(item.GetByTestId("bill-date")).ToHaveText("4 Avr. 04"))
	require.NoError(t, suite.expect.Locator(item.GetByTestId("amount")).ToHaveText("348 €"))
	require.NoError(t, suite.expect.Locator(item.GetByTestId("status")).ToHaveText("En attente"))
}

func (suite *E2ETestSuite) TestAdminAcceptsBill() {
	t := suite.T()
	name := "e2e-hotel-" + suite.run

	suite.login("employee", "employee2-"+suite.run+"@billed.test")
	suite.createBill(name)
	require.NoError(t, suite.page.GetByTestId("layout-disconnect").Click())

	suite.login("admin", "admin-"+suite.run+"@billed.test")
	row := suite.page.GetByTestId("dashboard-bill-item").Filter(playwright.LocatorFilterOptions{HasText: name})
	require.NoError(t, suite.expect.Locator(row).ToHaveCount(1), "bill not on dashboard")

	require.NoError(t, row.GetByTestId("commentary2").Fill("ok"))
	require.NoError(t, row.GetByTestId("btn-accept-bill").Click())

	row = suite.page.GetByTestId("dashboard-bill-item").Filter(playwright.LocatorFilterOptions{HasText: name})
	require.NoError(t, suite.expect.Locator(row.GetByTestId("status")).ToHaveText("Accepté"))
}

func (suite *E2ETestSuite) TestLogoutReturnsToLogin() {
	t := suite.T()

	suite.login("employee", "employee3-"+suite.run+"@billed.test")
	require.NoError(t, suite.page.GetByTestId("layout-disconnect").Click())
	require.NoError(t, suite.expect.Locator(suite.page.GetByTestId("form-employee")).ToBeVisible())

	_, err := suite.page.Goto(appURL + "/employee/bills")
	require.NoError(t, err)
	require.NoError(t, suite.expect.Locator(suite.page.GetByTestId("form-employee")).ToBeVisible(), "protected page must redirect to login")
}

func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
